package transport_test

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"

	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/luma/lockdown/transport"
)

// recorder is an Observer that remembers everything it is told.
type recorder struct {
	mu       sync.Mutex
	logs     []string
	sessions []bool
}

func (r *recorder) OnLog(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logs = append(r.logs, text)
}

func (r *recorder) OnSessionActiveChanged(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions = append(r.sessions, active)
}

func (r *recorder) Logs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.logs...)
}

func (r *recorder) Sessions() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]bool(nil), r.sessions...)
}

func makeTCPServer(observer transport.Observer, opts ...func(*transport.Options)) *transport.TCP {
	log, err := zap.NewDevelopment()
	Expect(err).To(Succeed())

	options := transport.Options{
		Host:     "127.0.0.1",
		Port:     0,
		Observer: observer,
		Log:      log,
	}

	for _, opt := range opts {
		opt(&options)
	}

	tcp := transport.NewTCP(options)
	Expect(tcp.Start(context.Background())).To(Succeed())

	return tcp
}

func portOf(tcp *transport.TCP) int {
	return tcp.Addr().(*net.TCPAddr).Port
}

// sendRaw writes payload as is and returns whatever line comes back.
func sendRaw(tcp *transport.TCP, payload string) string {
	conn, err := net.Dial("tcp", tcp.Addr().String())
	Expect(err).To(Succeed())
	defer conn.Close()

	Expect(conn.SetDeadline(time.Now().Add(5 * time.Second))).To(Succeed())

	_, err = conn.Write([]byte(payload))
	Expect(err).To(Succeed())

	response, err := bufio.NewReader(conn).ReadString('\n')
	Expect(err).To(Succeed())

	return response
}

// waitForClose waits for the server to close conn.
func waitForClose(conn net.Conn) {
	Expect(conn.SetReadDeadline(time.Now().Add(5 * time.Second))).To(Succeed())

	one := make([]byte, 1)
	_, err := conn.Read(one)
	Expect(err).To(HaveOccurred())

	timeoutErr, ok := err.(net.Error)
	if ok {
		Expect(timeoutErr.Timeout()).To(BeFalse(), "The client was never closed by the server")
	}
}
