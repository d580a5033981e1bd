package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"tlscope/internal/formatting"
	"tlscope/internal/identity"
	"tlscope/internal/node"
	"tlscope/internal/storage/peercache"
	"tlscope/internal/storage/userstore"
	"tlscope/internal/util/logger/sl"
)

// PeerHistory is the cached last-seen peer view, satisfied by
// *peercache.Cache.
type PeerHistory interface {
	All() ([]*peercache.Record, error)
}

const (
	Version = "0.0.1"

	maxLoginDelay = 300 * time.Millisecond
)

// Shell is the interactive front end: registration, login and read-only
// queries over presence snapshots.
type Shell struct {
	node        *node.Node
	store       *userstore.Store
	deriver     *identity.Deriver
	peerHistory PeerHistory
	in          *bufio.Reader
	out         io.Writer
	log         *slog.Logger

	mu         sync.Mutex
	registered map[string]*userstore.UserRecord

	// overridable in tests
	delay    func()
	password func(prompt string) (string, error)
}

func New(
	n *node.Node,
	store *userstore.Store,
	deriver *identity.Deriver,
	in io.Reader,
	out io.Writer,
	log *slog.Logger,
) (*Shell, error) {
	const op = "shell.New"

	registered, err := store.ListAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &Shell{
		node:       n,
		store:      store,
		deriver:    deriver,
		in:         bufio.NewReader(in),
		out:        out,
		log:        log,
		registered: registered,
	}
	s.delay = func() {
		time.Sleep(time.Duration(rand.Int63n(int64(maxLoginDelay))))
	}
	s.password = s.promptPassword

	return s, nil
}

// SetNode attaches the session after login, once discovery is running.
func (s *Shell) SetNode(n *node.Node) {
	s.node = n
}

// SetPeerHistory attaches the last-seen peer cache for the p command.
func (s *Shell) SetPeerHistory(h PeerHistory) {
	s.peerHistory = h
}

// Reload rebuilds the registered-user map from disk. Wired to the user
// store watcher so external record changes show up without a restart.
func (s *Shell) Reload() {
	const op = "shell.Reload"
	log := s.log.With(slog.String("op", op))

	registered, err := s.store.ListAll()
	if err != nil {
		log.Error("reload registered users", sl.Err(err))
		return
	}

	s.mu.Lock()
	s.registered = registered
	s.mu.Unlock()

	log.Info("registered users reloaded", slog.Int("count", len(registered)))
}

// Menu shows the entry menu and returns the selected user record, or nil
// when the user quits.
func (s *Shell) Menu(ctx context.Context) (*userstore.UserRecord, error) {
	s.banner()

	s.mu.Lock()
	newUser := len(s.registered) == 0
	s.mu.Unlock()

	if newUser {
		fmt.Fprintln(s.out, "No users registered. Please register a new user.")
		fmt.Fprintln(s.out)
	}

	fmt.Fprintln(s.out, " r. Register")
	if !newUser {
		fmt.Fprintln(s.out, " l. Login")
	}
	fmt.Fprintln(s.out, " q. Quit")
	fmt.Fprintln(s.out, strings.Repeat("─", 45))

	for {
		input, err := s.readLine(ctx, ">")
		if err != nil {
			return nil, err
		}

		switch input {
		case "q":
			return nil, nil
		case "r":
			return s.RegisterUser(ctx)
		case "l":
			return s.LoginUser(ctx)
		default:
			fmt.Fprintln(s.out, "Invalid input!")
		}
	}
}

// Run is the post-login command loop over presence snapshots.
func (s *Shell) Run(ctx context.Context) error {
	help := [][2]string{
		{"h", "Help"},
		{"m", "My Data"},
		{"u", "Users on the network"},
		{"p", "Last seen peers"},
		{"q", "Quit"},
	}

	for {
		input, err := s.readLine(ctx, ">")
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		switch input {
		case "":
			continue
		case "h":
			for _, entry := range help {
				fmt.Fprintf(s.out, " %s -> %s\n", entry[0], entry[1])
			}
		case "m":
			fmt.Fprint(s.out, s.myData())
		case "u":
			fmt.Fprint(s.out, s.networkUsers())
		case "p":
			fmt.Fprint(s.out, s.lastSeenPeers())
		case "q":
			return nil
		default:
			fmt.Fprintln(s.out, "Invalid input!")
		}
	}
}

func (s *Shell) banner() {
	title := color.New(color.FgYellow).Sprint("TLScope")
	fmt.Fprintf(s.out, "\n %s  Version: %s\n", title, Version)
	fmt.Fprintln(s.out, " GNU General Public License v3.0")
	fmt.Fprintln(s.out)
}

func (s *Shell) myData() string {
	user := s.currentUser()
	if user == nil {
		return "Not logged in.\n"
	}

	return "USER DATA:\n" + formatting.Tree(map[string]any{
		"name":  user.Name,
		"email": user.Email,
		"uuid":  user.ID,
	}, "")
}

func (s *Shell) networkUsers() string {
	if s.node == nil {
		return "Discovery is not running.\n"
	}

	snapshot := s.node.Snapshot()
	if len(snapshot) == 0 {
		return "No users found.\n"
	}

	users := make(map[string]any, len(snapshot))
	for _, rec := range snapshot {
		users[rec.Endpoint()] = map[string]any{
			"name":      rec.DisplayName,
			"last seen": rec.LastHeartbeat.Format(time.RFC3339),
		}
	}

	header := color.New(color.FgGreen).Sprint("Users on the network:")
	return header + "\n" + formatting.Tree(users, "")
}

func (s *Shell) lastSeenPeers() string {
	if s.peerHistory == nil {
		return "No peer history available.\n"
	}

	records, err := s.peerHistory.All()
	if err != nil {
		s.log.Error("read peer cache", sl.Err(err))
		return "No peer history available.\n"
	}
	if len(records) == 0 {
		return "No peers seen yet.\n"
	}

	peers := make(map[string]any, len(records))
	for _, rec := range records {
		peers[rec.Endpoint] = rec.LastSeen.Format(time.RFC3339)
	}
	return "Last seen peers:\n" + formatting.Tree(peers, "")
}

func (s *Shell) currentUser() *userstore.UserRecord {
	if s.node == nil {
		return nil
	}
	return s.node.User
}

type lineResult struct {
	line string
	err  error
}

// readLine reads one trimmed line, aborting early when ctx is canceled
// so a shutdown signal unblocks the prompt.
func (s *Shell) readLine(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)

	ch := make(chan lineResult, 1)
	go func() {
		line, err := s.in.ReadString('\n')
		ch <- lineResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil {
			if res.err == io.EOF && res.line != "" {
				return strings.TrimSpace(res.line), nil
			}
			return "", res.err
		}
		return strings.TrimSpace(res.line), nil
	}
}

func (s *Shell) promptPassword(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		defer fmt.Fprintln(s.out)
		pass, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return string(pass), nil
	}

	// non-terminal input (pipes, tests)
	line, err := s.in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
