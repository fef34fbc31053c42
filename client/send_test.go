package client_test

import (
	"bufio"
	"context"
	"errors"
	"net"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/lockdown/client"
	"github.com/luma/lockdown/protocol"
)

var _ = Describe("client", func() {
	var (
		listener net.Listener
		port     int
		received chan *protocol.Envelope
	)

	// serve answers every connection with respond, after decoding the request
	serve := func(respond func(conn net.Conn)) {
		go func() {
			for {
				conn, err := listener.Accept()
				if err != nil {
					return
				}

				go func() {
					defer conn.Close()

					line, err := bufio.NewReader(conn).ReadString('\n')
					if err == nil {
						if env, err := protocol.Decode([]byte(line)); err == nil {
							received <- env
						}
					}

					respond(conn)
				}()
			}
		}()
	}

	BeforeEach(func() {
		var err error
		listener, err = net.Listen("tcp", "127.0.0.1:0")
		Expect(err).To(Succeed())

		port = listener.Addr().(*net.TCPAddr).Port
		received = make(chan *protocol.Envelope, 10)
	})

	AfterEach(func() {
		listener.Close()
	})

	Describe("Send()", func() {
		It("returns the trimmed response line", func() {
			serve(func(conn net.Conn) {
				conn.Write([]byte("  OK: Session started\r\n"))
			})

			env := protocol.NewEnvelope(protocol.StartSession, "TeacherConsole", "Start lockdown session")
			resp, err := client.Send(context.Background(), "127.0.0.1", port, env, time.Second)
			Expect(err).To(Succeed())
			Expect(resp).To(Equal("OK: Session started"))

			var got *protocol.Envelope
			Eventually(received).Should(Receive(&got))
			Expect(got.Equal(env)).To(BeTrue())
		})

		It("returns an empty response when the peer closes without answering", func() {
			serve(func(conn net.Conn) {})

			resp, err := client.Send(context.Background(), "127.0.0.1", port,
				protocol.NewEnvelope(protocol.Hello, "", ""), time.Second)
			Expect(err).To(Succeed())
			Expect(resp).To(BeEmpty())
		})

		It("accepts a response that ends without a newline", func() {
			serve(func(conn net.Conn) {
				conn.Write([]byte("OK: HELLO received"))
			})

			resp, err := client.Send(context.Background(), "127.0.0.1", port,
				protocol.NewEnvelope(protocol.Hello, "", ""), time.Second)
			Expect(err).To(Succeed())
			Expect(resp).To(Equal("OK: HELLO received"))
		})

		It("only reads the first line", func() {
			serve(func(conn net.Conn) {
				conn.Write([]byte("OK: one\nOK: two\n"))
			})

			resp, err := client.Send(context.Background(), "127.0.0.1", port,
				protocol.NewEnvelope(protocol.Hello, "", ""), time.Second)
			Expect(err).To(Succeed())
			Expect(resp).To(Equal("OK: one"))
		})

		It("times out when the peer never answers", func() {
			serve(func(conn net.Conn) {
				time.Sleep(2 * time.Second)
			})

			start := time.Now()
			_, err := client.Send(context.Background(), "127.0.0.1", port,
				protocol.NewEnvelope(protocol.Hello, "", ""), 100*time.Millisecond)

			var transportErr *client.TransportError
			Expect(errors.As(err, &transportErr)).To(BeTrue())
			Expect(transportErr.Op).To(Equal("read"))
			Expect(transportErr.Timeout()).To(BeTrue())
			Expect(time.Since(start)).To(BeNumerically("<", time.Second))
		})

		It("stops when the parent context is cancelled", func() {
			serve(func(conn net.Conn) {
				time.Sleep(2 * time.Second)
			})

			ctx, cancel := context.WithCancel(context.Background())
			time.AfterFunc(50*time.Millisecond, cancel)

			start := time.Now()
			_, err := client.Send(ctx, "127.0.0.1", port,
				protocol.NewEnvelope(protocol.Hello, "", ""), 5*time.Second)
			Expect(err).To(MatchError(context.Canceled))
			Expect(time.Since(start)).To(BeNumerically("<", time.Second))
		})

		It("reports a dial failure when nothing is listening", func() {
			listener.Close()

			_, err := client.Send(context.Background(), "127.0.0.1", port,
				protocol.NewEnvelope(protocol.Hello, "", ""), time.Second)

			var transportErr *client.TransportError
			Expect(errors.As(err, &transportErr)).To(BeTrue())
			Expect(transportErr.Op).To(Equal("dial"))
			Expect(transportErr.Addr).To(Equal(listener.Addr().String()))
		})
	})

	Describe("Conn", func() {
		It("sends start and end session envelopes as the teacher console", func() {
			serve(func(conn net.Conn) {
				conn.Write([]byte("OK: fine\n"))
			})

			conn := client.New("127.0.0.1", port, "", time.Second, nil)

			_, err := conn.StartSession(context.Background())
			Expect(err).To(Succeed())

			var got *protocol.Envelope
			Eventually(received).Should(Receive(&got))
			Expect(got.Kind).To(Equal(protocol.StartSession))
			Expect(got.Sender).To(Equal(client.DefaultSender))
			Expect(got.Content).To(Equal("Start lockdown session"))

			_, err = conn.EndSession(context.Background())
			Expect(err).To(Succeed())

			Eventually(received).Should(Receive(&got))
			Expect(got.Kind).To(Equal(protocol.EndSession))
			Expect(got.Content).To(Equal("End lockdown session"))
		})

		It("sends commands and hellos with their content", func() {
			serve(func(conn net.Conn) {
				conn.Write([]byte("OK: fine\n"))
			})

			conn := client.New("127.0.0.1", port, "Console-2", time.Second, nil)

			_, err := conn.Command(context.Background(), "EndSession")
			Expect(err).To(Succeed())

			var got *protocol.Envelope
			Eventually(received).Should(Receive(&got))
			Expect(got.Kind).To(Equal(protocol.Command))
			Expect(got.Content).To(Equal("EndSession"))
			Expect(got.Sender).To(Equal("Console-2"))

			_, err = conn.Hello(context.Background(), "hi there")
			Expect(err).To(Succeed())

			Eventually(received).Should(Receive(&got))
			Expect(got.Kind).To(Equal(protocol.Hello))
			Expect(got.Content).To(Equal("hi there"))
		})
	})
})
