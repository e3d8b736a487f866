package chat

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"github.com/danmuck/peerline/internal/app"
	"github.com/danmuck/peerline/internal/command"
	"github.com/danmuck/peerline/internal/session"
	"github.com/samber/lo"
)

type listenArgs struct {
	port int
}

type connectArgs struct {
	addr netip.AddrPort
}

type nickArgs struct {
	name string
}

type peersArgs struct{}

type kickArgs struct {
	index int
}

var commands = app.NewBuilder[*Chat]().Add(
	command.On(command.Spec{Name: "listen", Arity: 1, Flags: command.UniqueName}, parseListen, (*Chat).cmdListen),
	command.On(command.Spec{Name: "connect", Arity: 2, Flags: command.UniqueName}, parseConnect, (*Chat).cmdConnect),
	command.OnLong(command.Spec{Name: "say", Flags: command.UniqueName}, (*Chat).cmdSay),
	command.On(command.Spec{Name: "nick", Arity: 1, Flags: command.UniqueName}, parseNick, (*Chat).cmdNick),
	command.On(command.Spec{Name: "peers", Flags: command.UniqueName}, command.Empty[peersArgs], (*Chat).cmdPeers),
	command.On(command.Spec{Name: "kick", Arity: 1, Flags: command.UniqueName}, parseKick, (*Chat).cmdKick),
).MustBuild()

func parseListen(args []string) (listenArgs, error) {
	port, err := command.ParsePort(args[0])
	return listenArgs{port: port}, err
}

func parseConnect(args []string) (connectArgs, error) {
	ip, err := command.ParseIPAddress(args[0])
	if err != nil {
		return connectArgs{}, err
	}
	port, err := command.ParsePort(args[1])
	if err != nil {
		return connectArgs{}, err
	}
	return connectArgs{addr: netip.AddrPortFrom(ip, uint16(port))}, nil
}

func parseNick(args []string) (nickArgs, error) {
	return nickArgs{name: args[0]}, nil
}

func parseKick(args []string) (kickArgs, error) {
	n, err := command.ParseInt(args[0])
	return kickArgs{index: n}, err
}

func (c *Chat) cmdListen(a listenArgs) error {
	addr, err := c.Listen(net.JoinHostPort("", strconv.Itoa(a.port)))
	if err != nil {
		return err
	}
	c.Write(fmt.Sprintf("listening on %s", addr))
	return nil
}

func (c *Chat) cmdConnect(a connectArgs) error {
	s, err := c.Connect(context.Background(), a.addr.String())
	if err != nil {
		return err
	}
	c.Write(fmt.Sprintf("connected to %s", s.RemoteAddr()))
	return nil
}

func (c *Chat) cmdSay(body string) error {
	if body == "" {
		c.Write("nothing to say")
		return nil
	}
	if c.broadcast(Text{From: c.Name(), Body: body}) == 0 {
		c.Write("no peers connected")
	}
	return nil
}

func (c *Chat) cmdNick(a nickArgs) error {
	c.Rename(a.name)
	c.Write(fmt.Sprintf("you are now %s", a.name))
	return nil
}

func (c *Chat) cmdPeers(peersArgs) error {
	sessions := c.Sessions().Snapshot()
	if len(sessions) == 0 {
		c.Write("no peers connected")
		return nil
	}
	rows := lo.Map(sessions, func(s *session.Session, i int) string {
		return fmt.Sprintf("%d. %s %s", i+1, peerName(s), s.RemoteAddr())
	})
	c.Write(strings.Join(rows, "\n"))
	return nil
}

// cmdKick ends the session at 1-based position n of the peers listing.
func (c *Chat) cmdKick(a kickArgs) error {
	sessions := c.Sessions().Snapshot()
	if a.index < 1 || a.index > len(sessions) {
		c.Write(fmt.Sprintf("no peer %d, see peers", a.index))
		return nil
	}
	s := sessions[a.index-1]
	name := peerName(s)
	_ = s.SendEnd("kicked")
	s.Close()
	c.Sessions().Remove(s)
	c.Write(fmt.Sprintf("kicked %s", name))
	return nil
}
