// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

//go:build integration

package integration

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/emberbot/emberbot/internal/command"
	"github.com/emberbot/emberbot/internal/command/handlers"
	"github.com/emberbot/emberbot/internal/console"
	"github.com/emberbot/emberbot/internal/player"
)

const testAdminPassword = "integration-secret"

// botServer runs the full command pipeline behind a real TCP console:
// registry, builtin handlers, alias cache, rate limiter, dispatcher.
type botServer struct {
	srv     *console.Server
	limiter *command.RateLimiter
	cancel  context.CancelFunc
	done    chan error
}

func startBotServer(rl command.RateLimiterConfig) *botServer {
	aliases := command.NewAliasCache()
	registry := command.NewRegistry()
	handlers.RegisterAll(registry, handlers.Deps{
		Aliases: aliases,
		Queue:   player.NewQueue(),
		Version: "1.2.3",
	})

	limiter := command.NewRateLimiter(rl)

	dispatcher, err := command.NewDispatcher(registry,
		command.WithAliasCache(aliases),
		command.WithRateLimiter(limiter),
	)
	Expect(err).NotTo(HaveOccurred())

	hash, err := console.HashPassword(testAdminPassword)
	Expect(err).NotTo(HaveOccurred())

	srv, err := console.NewServer("127.0.0.1:0", dispatcher,
		console.WithAdminHash(hash),
	)
	Expect(err).NotTo(HaveOccurred())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	Eventually(srv.Addr, 5*time.Second, 10*time.Millisecond).ShouldNot(BeEmpty())

	return &botServer{srv: srv, limiter: limiter, cancel: cancel, done: done}
}

func (b *botServer) stop() {
	b.cancel()
	Eventually(b.done, 5*time.Second).Should(Receive(BeNil()))
	b.limiter.Close()
}

// consoleClient is a line-oriented TCP client for the console.
type consoleClient struct {
	conn   net.Conn
	reader *bufio.Reader
}

func dialConsole(addr string) *consoleClient {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	Expect(err).NotTo(HaveOccurred())
	return &consoleClient{conn: conn, reader: bufio.NewReader(conn)}
}

func (c *consoleClient) close() {
	_ = c.conn.Close()
}

func (c *consoleClient) sendLine(line string) {
	Expect(c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))).To(Succeed())
	_, err := fmt.Fprintf(c.conn, "%s\n", line)
	Expect(err).NotTo(HaveOccurred())
}

func (c *consoleClient) readLine() string {
	Expect(c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))).To(Succeed())
	line, err := c.reader.ReadString('\n')
	Expect(err).NotTo(HaveOccurred())
	return strings.TrimRight(line, "\r\n")
}

// readLines reads n consecutive reply lines.
func (c *consoleClient) readLines(n int) []string {
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		lines = append(lines, c.readLine())
	}
	return lines
}

// expectClosed waits for the server to close the connection.
func (c *consoleClient) expectClosed() {
	Expect(c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))).To(Succeed())
	_, err := c.reader.ReadString('\n')
	Expect(err).To(HaveOccurred())
}

var _ = Describe("Console", func() {
	var bot *botServer

	BeforeEach(func() {
		// Generous limits so specs never trip rate limiting by accident.
		bot = startBotServer(command.RateLimiterConfig{
			BurstCapacity: 100,
			SustainedRate: 100,
		})
	})

	AfterEach(func() {
		bot.stop()
	})

	It("greets connecting clients", func() {
		client := dialConsole(bot.srv.Addr())
		defer client.close()

		Expect(client.readLine()).To(ContainSubstring("Welcome to emberbot"))
	})

	It("echoes say lines under the session name", func() {
		client := dialConsole(bot.srv.Addr())
		defer client.close()
		client.readLine() // greeting

		client.sendLine("name alice")
		Expect(client.readLine()).To(Equal("You are now known as alice."))

		client.sendLine("say hello world")
		Expect(client.readLine()).To(Equal("alice: hello world"))
	})

	It("keeps quoted phrases together through the tokenizer", func() {
		client := dialConsole(bot.srv.Addr())
		defer client.close()
		client.readLine() // greeting

		client.sendLine("name dj")
		client.readLine()

		client.sendLine(`song request spotify:track:4uLU6hMCjMI75M1A2tKUQC "Never Gonna Give You Up" "Rick Astley"`)
		Expect(client.readLine()).To(Equal(`Added "Never Gonna Give You Up" by Rick Astley to the queue (position 1).`))

		client.sendLine("song current")
		Expect(client.readLine()).To(Equal(`Current song: "Never Gonna Give You Up" by Rick Astley, requested by dj.`))
	})

	It("runs the song queue end to end", func() {
		client := dialConsole(bot.srv.Addr())
		defer client.close()
		client.readLine() // greeting

		client.sendLine("name dj")
		client.readLine()

		client.sendLine("song current")
		Expect(client.readLine()).To(Equal("No song is playing."))

		client.sendLine(`song request spotify:track:first "First Song" "Somebody"`)
		Expect(client.readLine()).To(ContainSubstring("position 1"))

		client.sendLine(`song request youtube:video:dQw4w9WgXcQ "Second Song"`)
		Expect(client.readLine()).To(ContainSubstring("position 2"))

		client.sendLine("song list")
		lines := client.readLines(3)
		Expect(lines[0]).To(Equal("Songs in the queue:"))
		Expect(lines[1]).To(ContainSubstring(`1. "First Song" by Somebody`))
		Expect(lines[2]).To(ContainSubstring(`2. "Second Song" (requested by dj)`))

		client.sendLine("song skip")
		Expect(client.readLine()).To(ContainSubstring(`Now playing: "Second Song"`))

		client.sendLine("song skip")
		Expect(client.readLine()).To(Equal("Nothing left to play."))
	})

	It("lists every builtin command via help", func() {
		client := dialConsole(bot.srv.Addr())
		defer client.close()
		client.readLine() // greeting

		client.sendLine("help")
		lines := client.readLines(12)
		Expect(lines[0]).To(Equal("Available commands:"))

		output := strings.Join(lines, "\n")
		for _, name := range []string{"alias", "help", "quit", "say", "song", "sysalias", "version"} {
			Expect(output).To(ContainSubstring(name))
		}
	})

	It("replies to unknown commands without dropping the session", func() {
		client := dialConsole(bot.srv.Addr())
		defer client.close()
		client.readLine() // greeting

		client.sendLine("bogus")
		Expect(client.readLine()).To(Equal("Unknown command. Try 'help'."))

		// Session still works afterwards.
		client.sendLine("name carol")
		Expect(client.readLine()).To(Equal("You are now known as carol."))
	})

	It("expands aliases with trailing arguments", func() {
		client := dialConsole(bot.srv.Addr())
		defer client.close()
		client.readLine() // greeting

		client.sendLine("name bob")
		client.readLine()

		client.sendLine("alias greet=say hi")
		Expect(client.readLine()).To(Equal("Alias 'greet' added: say hi"))

		client.sendLine("greet there")
		Expect(client.readLine()).To(Equal("bob: hi there"))

		client.sendLine("aliases")
		lines := client.readLines(2)
		Expect(lines[0]).To(Equal("Your aliases:"))
		Expect(lines[1]).To(ContainSubstring("greet = say hi"))

		client.sendLine("unalias greet")
		Expect(client.readLine()).To(Equal("Alias 'greet' removed."))

		client.sendLine("greet there")
		Expect(client.readLine()).To(Equal("Unknown command. Try 'help'."))
	})

	It("gates system aliases behind admin auth", func() {
		admin := dialConsole(bot.srv.Addr())
		defer admin.close()
		admin.readLine() // greeting

		admin.sendLine("sysalias gg=say good game")
		Expect(admin.readLine()).To(Equal("That command is admin-only."))

		admin.sendLine("auth wrong-password")
		Expect(admin.readLine()).To(Equal("Invalid password."))

		admin.sendLine("auth " + testAdminPassword)
		Expect(admin.readLine()).To(Equal("Admin access granted."))

		admin.sendLine("sysalias gg=say good game")
		Expect(admin.readLine()).To(Equal("System alias 'gg' added: say good game"))

		// A fresh unauthenticated session can use the system alias.
		player2 := dialConsole(bot.srv.Addr())
		defer player2.close()
		player2.readLine() // greeting

		player2.sendLine("name eve")
		player2.readLine()

		player2.sendLine("gg")
		Expect(player2.readLine()).To(Equal("eve: good game"))

		// But not manage system aliases.
		player2.sendLine("sysunalias gg")
		Expect(player2.readLine()).To(Equal("That command is admin-only."))
	})

	It("ends the session on quit", func() {
		client := dialConsole(bot.srv.Addr())
		defer client.close()
		client.readLine() // greeting

		client.sendLine("quit")
		client.expectClosed()
	})

	It("notifies connected sessions on shutdown", func() {
		client := dialConsole(bot.srv.Addr())
		defer client.close()
		client.readLine() // greeting

		bot.cancel()
		Expect(client.readLine()).To(Equal("Server shutting down."))
		client.expectClosed()
	})
})

var _ = Describe("Console rate limiting", func() {
	var bot *botServer

	BeforeEach(func() {
		// Tiny burst and the slowest refill the limiter allows, so the
		// third command inside one burst is always rejected.
		bot = startBotServer(command.RateLimiterConfig{
			BurstCapacity: 2,
			SustainedRate: 0.1,
		})
	})

	AfterEach(func() {
		bot.stop()
	})

	It("rejects commands once the burst is spent", func() {
		client := dialConsole(bot.srv.Addr())
		defer client.close()
		client.readLine() // greeting

		client.sendLine("say one")
		Expect(client.readLine()).To(ContainSubstring("one"))

		client.sendLine("say two")
		Expect(client.readLine()).To(ContainSubstring("two"))

		client.sendLine("say three")
		Expect(client.readLine()).To(Equal("Too many commands. Please slow down."))
	})

	It("does not rate limit admin sessions", func() {
		client := dialConsole(bot.srv.Addr())
		defer client.close()
		client.readLine() // greeting

		client.sendLine("auth " + testAdminPassword)
		Expect(client.readLine()).To(Equal("Admin access granted."))

		for i := 0; i < 5; i++ {
			client.sendLine(fmt.Sprintf("say message %d", i))
			Expect(client.readLine()).To(ContainSubstring(fmt.Sprintf("message %d", i)))
		}
	})

	It("tracks sessions independently", func() {
		first := dialConsole(bot.srv.Addr())
		defer first.close()
		first.readLine() // greeting

		first.sendLine("say one")
		first.readLine()
		first.sendLine("say two")
		first.readLine()
		first.sendLine("say three")
		Expect(first.readLine()).To(Equal("Too many commands. Please slow down."))

		// A second session has its own bucket.
		second := dialConsole(bot.srv.Addr())
		defer second.close()
		second.readLine() // greeting

		second.sendLine("say fresh")
		Expect(second.readLine()).To(ContainSubstring("fresh"))
	})
})
