package stages

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/shaiso/propeller/internal/domain"
)

const (
	// StageTypeSFTP — тип SFTP deployer'а.
	StageTypeSFTP = "sftp"

	defaultSFTPPort    = 22
	defaultSFTPTimeout = 30 * time.Second
	defaultKnownHosts  = "~/.ssh/known_hosts"
)

// SFTPConfig — параметры подключения SFTP.
type SFTPConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	Key        string // путь к приватному ключу
	Passphrase string
	KnownHosts string
	Insecure   bool // не проверять ключ хоста
	Timeout    time.Duration
}

// Addr возвращает host:port.
func (c SFTPConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ParseSFTPConfig разбирает connection окружения.
//
//	{
//	    "host": "example.com",
//	    "port": 22,
//	    "user": "deploy",
//	    "key": "~/.ssh/id_ed25519",
//	    "knownHosts": "~/.ssh/known_hosts"
//	}
//
// Нужен хотя бы один способ аутентификации: password или key.
func ParseSFTPConfig(conn map[string]any) (SFTPConfig, error) {
	cfg := SFTPConfig{
		Host:       GetConfigString(conn, "host"),
		Port:       GetConfigInt(conn, "port"),
		User:       GetConfigString(conn, "user"),
		Password:   GetConfigString(conn, "password"),
		Key:        GetConfigString(conn, "key"),
		Passphrase: GetConfigString(conn, "passphrase"),
		KnownHosts: GetConfigString(conn, "knownHosts"),
		Insecure:   GetConfigBool(conn, "insecure", false),
		Timeout:    GetConfigDuration(conn, "timeout", defaultSFTPTimeout),
	}

	if cfg.Host == "" {
		return cfg, fmt.Errorf("%w: host is required", ErrInvalidConnection)
	}
	if cfg.User == "" {
		return cfg, fmt.Errorf("%w: user is required", ErrInvalidConnection)
	}
	if cfg.Password == "" && cfg.Key == "" {
		return cfg, fmt.Errorf("%w: password or key is required", ErrInvalidConnection)
	}
	if cfg.Port == 0 {
		cfg.Port = defaultSFTPPort
	}
	if cfg.KnownHosts == "" {
		cfg.KnownHosts = defaultKnownHosts
	}
	return cfg, nil
}

// ClientConfig строит конфигурацию SSH клиента.
func (c SFTPConfig) ClientConfig() (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod

	if c.Key != "" {
		signer, err := c.signer()
		if err != nil {
			return nil, err
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if c.Password != "" {
		auth = append(auth, ssh.Password(c.Password))
	}

	hostKey := ssh.InsecureIgnoreHostKey()
	if !c.Insecure {
		path, err := homedir.Expand(c.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("%w: knownHosts: %v", ErrInvalidConnection, err)
		}
		hostKey, err = knownhosts.New(path)
		if err != nil {
			return nil, fmt.Errorf("%w: knownHosts: %v", ErrInvalidConnection, err)
		}
	}

	return &ssh.ClientConfig{
		User:            c.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         c.Timeout,
	}, nil
}

func (c SFTPConfig) signer() (ssh.Signer, error) {
	path, err := homedir.Expand(c.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: key: %v", ErrInvalidConnection, err)
	}
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: key: %v", ErrInvalidConnection, err)
	}

	var signer ssh.Signer
	if c.Passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(pem, []byte(c.Passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(pem)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: key: %v", ErrInvalidConnection, err)
	}
	return signer, nil
}

// SFTPDeployer загружает файлы по SFTP.
//
// Dest — каталог на удалённом хосте. Файл загружается, только если его
// нет или удалённая копия старше; время модификации сохраняется.
type SFTPDeployer struct {
	dial func(ctx context.Context, cfg SFTPConfig) (remoteFS, error)
}

// NewSFTPDeployer создаёт SFTPDeployer.
func NewSFTPDeployer() *SFTPDeployer {
	return &SFTPDeployer{dial: dialSFTP}
}

// Type возвращает тип deployer'а.
func (d *SFTPDeployer) Type() string {
	return StageTypeSFTP
}

// RequiresConnection — без connection SFTP deploy невозможен.
func (d *SFTPDeployer) RequiresConnection() bool {
	return true
}

// ValidateConnection проверяет параметры подключения.
func (d *SFTPDeployer) ValidateConnection(conn domain.Connection) error {
	_, err := ParseSFTPConfig(conn)
	return err
}

// Deploy загружает файлы.
func (d *SFTPDeployer) Deploy(ctx context.Context, req *DeployRequest) error {
	if err := requireConnection(req); err != nil {
		return err
	}
	cfg, err := ParseSFTPConfig(req.Connection)
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

func dialSFTP(ctx context.Context, cfg SFTPConfig) (remoteFS, error) {
	clientCfg, err := cfg.ClientConfig()
	if err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Addr())
	if err != nil {
		return nil, err
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, cfg.Addr(), clientCfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake: %w", err)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("sftp session: %w", err)
	}

	return &sftpFS{ssh: sshClient, client: client}, nil
}

// sftpFS — remoteFS поверх pkg/sftp.
type sftpFS struct {
	ssh    *ssh.Client
	client *sftp.Client
}

func (f *sftpFS) MkdirAll(dir string) error {
	return f.client.MkdirAll(dir)
}

func (f *sftpFS) ModTime(p string) (time.Time, bool) {
	info, err := f.client.Stat(p)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

func (f *sftpFS) Upload(p string, r io.Reader, mtime time.Time) error {
	dst, err := f.client.Create(p)
	if err != nil {
		return err
	}
	if _, err := dst.ReadFrom(r); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	return f.client.Chtimes(p, mtime, mtime)
}

func (f *sftpFS) Close() error {
	cerr := f.client.Close()
	if err := f.ssh.Close(); err != nil {
		return err
	}
	return cerr
}
