package filesystem

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"

	"github.com/goph/emperror"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SftpFs reads and writes payloads on a remote host over sftp. The ssh
// connection is established lazily on first use and kept open until
// Close.
type SftpFs struct {
	addr   string
	config *ssh.ClientConfig
	client *ssh.Client
	sftp   *sftp.Client
}

func NewSftpFs(addr, user, privateKey string) (*SftpFs, error) {
	key, err := ioutil.ReadFile(privateKey)
	if err != nil {
		return nil, emperror.Wrapf(err, "Unable to read private key %s", privateKey)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, emperror.Wrapf(err, "Unable to parse private key")
	}

	sshConfig := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	return &SftpFs{addr: addr, config: sshConfig}, nil
}

func (fs *SftpFs) IsLocal() bool { return false }

func (fs *SftpFs) Protocol() string {
	return fmt.Sprintf("sftp://%s", fs.addr)
}

func (fs *SftpFs) connect() error {
	if fs.sftp != nil {
		return nil
	}
	var err error
	fs.client, err = ssh.Dial("tcp", fs.addr, fs.config)
	if err != nil {
		return emperror.Wrapf(err, "server dial error to %v", fs.addr)
	}
	fs.sftp, err = sftp.NewClient(fs.client)
	if err != nil {
		fs.client.Close()
		fs.client = nil
		return emperror.Wrap(err, "cannot create sftp client")
	}
	return nil
}

func (fs *SftpFs) Close() error {
	if fs.sftp != nil {
		fs.sftp.Close()
		fs.sftp = nil
	}
	if fs.client != nil {
		fs.client.Close()
		fs.client = nil
	}
	return nil
}

func (fs *SftpFs) FileGet(folder, name string, opts FileGetOptions) ([]byte, error) {
	if err := fs.connect(); err != nil {
		return nil, err
	}
	fp := path.Join(folder, name)
	f, err := fs.sftp.Open(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{err: err}
		}
		return nil, emperror.Wrapf(err, "cannot open %s", fp)
	}
	defer f.Close()
	var b = &bytes.Buffer{}
	if _, err := io.Copy(b, f); err != nil {
		return nil, emperror.Wrapf(err, "cannot read %s", fp)
	}
	return b.Bytes(), nil
}

func (fs *SftpFs) FilePut(folder, name string, data []byte, opts FilePutOptions) error {
	if err := fs.connect(); err != nil {
		return err
	}
	fp := path.Join(folder, name)
	if folder != "" {
		if err := fs.sftp.MkdirAll(folder); err != nil {
			return emperror.Wrapf(err, "cannot create folder %s", folder)
		}
	}
	f, err := fs.sftp.Create(fp)
	if err != nil {
		return emperror.Wrapf(err, "cannot create %s", fp)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return emperror.Wrapf(err, "cannot write %s", fp)
	}
	return nil
}

func (fs *SftpFs) FileExists(folder, name string) (bool, error) {
	if err := fs.connect(); err != nil {
		return false, err
	}
	fp := path.Join(folder, name)
	info, err := fs.sftp.Stat(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, emperror.Wrapf(err, "cannot stat %s", fp)
	}
	return info.Mode().IsRegular(), nil
}
