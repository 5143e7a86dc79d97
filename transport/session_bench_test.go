package transport

import (
	"fmt"
	"os"
	"testing"
)

func noopReceiver() chan<- string {
	events := make(chan string)

	go func() {
		for range events {
		}
	}()

	return events
}

func newBenchSession(bench *testing.B) *Session {
	address := os.Getenv("SERVER_URL")

	if address == "" {
		bench.Skip("SERVER_URL is not set")
	}

	session, err := NewSession(address, noopReceiver())

	if err != nil {
		bench.Fatal(err)
	}

	if _, err = session.Login(fmt.Sprintf("bench%d", os.Getpid()), "en"); err != nil {
		bench.Fatal(err)
	}

	return session
}

func BenchmarkSendCommand(bench *testing.B) {
	session := newBenchSession(bench)
	defer session.Close()

	bench.ResetTimer()

	for i := 0; i < bench.N; i++ {
		session.SendCommand("banlist", nil)
	}
}

func BenchmarkComplete(bench *testing.B) {
	session := newBenchSession(bench)
	defer session.Close()

	bench.ResetTimer()

	for i := 0; i < bench.N; i++ {
		session.Complete("pardon s")
	}
}
