package cluster

import (
	"fmt"
	"log"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// HostVerifier validates reachability and identity of a remote host before
// any remote action is attempted.
type HostVerifier interface {
	Verify(host RemoteHost) error
}

// RemoteRunner is the opaque remote-execution capability used to reach a
// remote master, e.g. for model replication.
type RemoteRunner interface {
	RunCmd(host RemoteHost, command string) (string, error)
	ReadFile(host RemoteHost, filePath string) ([]byte, error)
}

// SSHConnector implements HostVerifier and RemoteRunner as a SSH client.
type SSHConnector struct {
	Timeout time.Duration
	debug   bool
	log     *log.Logger
}

var _ HostVerifier = &SSHConnector{}
var _ RemoteRunner = &SSHConnector{}

// NewSSHConnector creates an instance of SSHConnector.
func NewSSHConnector(debug bool) *SSHConnector {
	connector := &SSHConnector{
		Timeout: 10 * time.Second,
		debug:   debug,
	}
	if debug {
		outfile, _ := os.Create("mmt-ssh.log")
		connector.log = log.New(outfile, "", 0)
	}
	return connector
}

// Log writes debug output when debug mode is on.
func (connector *SSHConnector) Log(msg ...string) {
	if !connector.debug {
		return
	}
	connector.log.Println(msg)
}

// Verify performs one authenticated handshake against the host, without
// executing any remote command. Network failures are reported as connection
// errors, rejected identities as authentication errors.
func (connector *SSHConnector) Verify(host RemoteHost) error {
	connection, err := connector.connect(host)
	if err != nil {
		return err
	}
	connection.Close()
	return nil
}

// RunCmd runs a shell command on the given host.
func (connector *SSHConnector) RunCmd(host RemoteHost, command string) (string, error) {
	connection, err := connector.connect(host)
	if err != nil {
		return "", err
	}
	defer connection.Close()

	session, err := connection.NewSession()
	if err != nil {
		return "", WrapError(ConnectionError, fmt.Sprintf("session to %s failed", host.Host), err)
	}
	defer session.Close()

	combinedOutput, err := session.CombinedOutput(command)

	connector.Log(host.Host+": Command: ", command)
	connector.Log(host.Host+": Output: ", string(combinedOutput))

	if err != nil {
		connector.Log(host.Host+": Error: ", err.Error())
		return "", fmt.Errorf("run failed\ncommand:%s\nstdout:%s\nerr:%v", command, string(combinedOutput), err)
	}

	return string(combinedOutput), nil
}

// ReadFile fetches the content of a remote file.
func (connector *SSHConnector) ReadFile(host RemoteHost, filePath string) ([]byte, error) {
	connection, err := connector.connect(host)
	if err != nil {
		return nil, err
	}
	defer connection.Close()

	session, err := connection.NewSession()
	if err != nil {
		return nil, WrapError(ConnectionError, fmt.Sprintf("session to %s failed", host.Host), err)
	}
	defer session.Close()

	content, err := session.Output("cat " + filePath)
	if err != nil {
		return nil, fmt.Errorf("read of %s on %s failed: %v", filePath, host.Host, err)
	}

	return content, nil
}

func (connector *SSHConnector) connect(host RemoteHost) (*ssh.Client, error) {
	config, err := connector.clientConfig(host)
	if err != nil {
		return nil, err
	}

	connection, err := ssh.Dial("tcp", net.JoinHostPort(host.Host, "22"), config)
	if err != nil {
		connector.Log(host.Host+": dial failed: ", err.Error())
		if strings.Contains(err.Error(), "unable to authenticate") || strings.Contains(err.Error(), "handshake failed") {
			return nil, WrapError(AuthenticationError, fmt.Sprintf("host %s rejected the provided identity", host.Host), err)
		}
		return nil, WrapError(ConnectionError, fmt.Sprintf("host %s is not reachable", host.Host), err)
	}

	return connection, nil
}

func (connector *SSHConnector) clientConfig(host RemoteHost) (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod

	if host.PemPath != "" {
		pemBytes, err := os.ReadFile(host.PemPath)
		if err != nil {
			return nil, WrapError(ConfigurationError, fmt.Sprintf("cannot read identity file %s", host.PemPath), err)
		}

		signer, err := ssh.ParsePrivateKey(pemBytes)
		if err != nil {
			return nil, WrapError(AuthenticationError, fmt.Sprintf("parse of identity file %s failed", host.PemPath), err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	} else if host.Password != "" {
		auth = append(auth, ssh.Password(host.Password))
	} else {
		return nil, NewError(ConfigurationError, fmt.Sprintf("no identity mechanism for host %s, provide a password or a PEM file", host.Host))
	}

	return &ssh.ClientConfig{
		User:            host.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         connector.Timeout,
	}, nil
}
