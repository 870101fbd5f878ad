package stages

import (
	"context"
	"fmt"
	"io"
	"net"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/shaiso/propeller/internal/domain"
)

const (
	// StageTypeFTP — тип FTP deployer'а.
	StageTypeFTP = "ftp"

	defaultFTPPort    = 21
	defaultFTPTimeout = 30 * time.Second
)

// FTPConfig — параметры подключения FTP.
type FTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Timeout  time.Duration
}

// Addr возвращает host:port.
func (c FTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ParseFTPConfig разбирает connection окружения.
//
//	{
//	    "host": "ftp.example.com",
//	    "port": 21,
//	    "user": "deploy",
//	    "password": "secret",
//	    "timeout": 30
//	}
func ParseFTPConfig(conn map[string]any) (FTPConfig, error) {
	cfg := FTPConfig{
		Host:     GetConfigString(conn, "host"),
		Port:     GetConfigInt(conn, "port"),
		User:     GetConfigString(conn, "user"),
		Password: GetConfigString(conn, "password"),
		Timeout:  GetConfigDuration(conn, "timeout", defaultFTPTimeout),
	}

	if cfg.Host == "" {
		return cfg, fmt.Errorf("%w: host is required", ErrInvalidConnection)
	}
	if cfg.Port == 0 {
		cfg.Port = defaultFTPPort
	}
	if cfg.User == "" {
		cfg.User = "anonymous"
	}
	return cfg, nil
}

// FTPDeployer загружает файлы на FTP сервер.
//
// Dest — каталог на сервере. Файл загружается, только если на сервере
// его нет или он старше локального (MDTM). После загрузки время
// модификации выставляется через MFMT, если сервер это умеет.
type FTPDeployer struct {
	dial func(ctx context.Context, cfg FTPConfig) (remoteFS, error)
}

// NewFTPDeployer создаёт FTPDeployer.
func NewFTPDeployer() *FTPDeployer {
	return &FTPDeployer{dial: dialFTP}
}

// Type возвращает тип deployer'а.
func (d *FTPDeployer) Type() string {
	return StageTypeFTP
}

// RequiresConnection — без connection FTP deploy невозможен.
func (d *FTPDeployer) RequiresConnection() bool {
	return true
}

// ValidateConnection проверяет параметры подключения.
func (d *FTPDeployer) ValidateConnection(conn domain.Connection) error {
	_, err := ParseFTPConfig(conn)
	return err
}

// Deploy загружает файлы.
func (d *FTPDeployer) Deploy(ctx context.Context, req *DeployRequest) error {
	if err := requireConnection(req); err != nil {
		return err
	}
	cfg, err := ParseFTPConfig(req.Connection)
	if err != nil {
		return err
	}

	matches, err := matchDeploySources(req, ".")
	if err != nil {
		return err
	}

	log := req.logger().With("environment", req.Environment, "host", cfg.Host)
	if len(matches) == 0 {
		log.Warn("no files matched", "sources", req.Sources)
		return nil
	}

	fsys, err := d.dial(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%w: connect %s: %v", ErrTransfer, cfg.Addr(), err)
	}
	defer fsys.Close()

	return upload(ctx, fsys, req.Dest, matches, log)
}

func dialFTP(ctx context.Context, cfg FTPConfig) (remoteFS, error) {
	conn, err := ftp.Dial(cfg.Addr(),
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, err
	}

	if err := conn.Login(cfg.User, cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("login: %w", err)
	}

	return &ftpFS{conn: conn}, nil
}

// ftpFS — remoteFS поверх jlaffaye/ftp.
type ftpFS struct {
	conn *ftp.ServerConn
}

func (f *ftpFS) MkdirAll(dir string) error {
	if dir == "" || dir == "." || dir == "/" {
		return nil
	}

	// MKD не создаёт родителей, идём по сегментам.
	// Ошибка "уже существует" неотличима от остальных, поэтому
	// проверяем результат через ChangeDir в конце.
	current := ""
	if strings.HasPrefix(dir, "/") {
		current = "/"
	}
	for _, seg := range strings.Split(strings.Trim(dir, "/"), "/") {
		current = path.Join(current, seg)
		_ = f.conn.MakeDir(current)
	}

	wd, err := f.conn.CurrentDir()
	if err != nil {
		return err
	}
	if err := f.conn.ChangeDir(dir); err != nil {
		return err
	}
	return f.conn.ChangeDir(wd)
}

func (f *ftpFS) ModTime(p string) (time.Time, bool) {
	if !f.conn.IsGetTimeSupported() {
		return time.Time{}, false
	}
	t, err := f.conn.GetTime(p)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (f *ftpFS) Upload(p string, r io.Reader, mtime time.Time) error {
	if err := f.conn.Stor(p, r); err != nil {
		return err
	}
	if f.conn.IsSetTimeSupported() {
		return f.conn.SetTime(p, mtime)
	}
	return nil
}

func (f *ftpFS) Close() error {
	return f.conn.Quit()
}
