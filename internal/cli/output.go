package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// Output управляет форматированием вывода CLI.
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений

	ok   *color.Color
	fail *color.Color
	name *color.Color
	dim  *color.Color
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return NewOutputTo(os.Stdout, os.Stderr, jsonMode)
}

// NewOutputTo создаёт Output с заданными writers.
func NewOutputTo(w, errW io.Writer, jsonMode bool) *Output {
	o := &Output{
		jsonMode: jsonMode,
		w:        w,
		errW:     errW,
		ok:       color.New(color.FgGreen),
		fail:     color.New(color.FgRed, color.Bold),
		name:     color.New(color.FgBlue),
		dim:      color.New(color.Faint),
	}
	if jsonMode {
		for _, c := range []*color.Color{o.ok, o.fail, o.name, o.dim} {
			c.DisableColor()
		}
	}
	return o
}

// JSONMode возвращает true, если результаты выводятся в JSON.
func (o *Output) JSONMode() bool {
	return o.jsonMode
}

// Print выводит данные: таблицу или JSON в зависимости от режима.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}
	o.Table(headers, rows)
}

// Table выводит данные в виде таблицы через tabwriter.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	o.ok.Fprintln(o.errW, msg)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	o.fail.Fprintln(o.errW, "Error: "+msg)
}

// Info выводит нейтральное сообщение в stderr.
func (o *Output) Info(msg string) {
	fmt.Fprintln(o.errW, msg)
}
