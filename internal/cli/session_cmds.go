package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"fintracker/internal/identity"
	"fintracker/internal/log"
	"fintracker/internal/session"
)

type loginCmd struct {
	id    string
	name  string
	email string
	role  string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "write the shared session for a user" }
func (*loginCmd) Usage() string {
	return `fintracker login -id <user id> [-name <name>] [-email <email>] [-role user|admin]

  Writes the session file watched by running fintracker processes and
  announces the change on AMQP when configured.
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "User id to log in as.")
	f.StringVar(&c.name, "name", "", "Display name.")
	f.StringVar(&c.email, "email", "", "Email address.")
	f.StringVar(&c.role, "role", session.RoleUser, "Role, user or admin.")
}

func (c *loginCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id := strings.TrimSpace(c.id)
	if id == "" {
		fmt.Fprintln(os.Stderr, "login: -id is required")
		return subcommands.ExitUsageError
	}
	if c.role != session.RoleUser && c.role != session.RoleAdmin {
		fmt.Fprintf(os.Stderr, "login: invalid role %q\n", c.role)
		return subcommands.ExitUsageError
	}

	rt := openRuntime(ctx)
	defer rt.Close()

	from := rt.Store.UserID()
	if err := rt.Session.Write(session.NewUserRecord("", id, c.name, c.email, c.role)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	t, _ := rt.Monitor.Check(ctx)
	publishSessionChange(ctx, rt, identity.Classify(from, id))

	fmt.Printf("Logged in as %s (%s)\n", id, c.role)
	if t.Kind == identity.Switch {
		fmt.Printf("Switched from %s\n", t.From)
	}
	return subcommands.ExitSuccess
}

type logoutCmd struct{}

func (*logoutCmd) Name() string     { return "logout" }
func (*logoutCmd) Synopsis() string { return "remove the shared session" }
func (*logoutCmd) Usage() string {
	return `fintracker logout

  Removes the session file. Stored data is kept for the next login.
`
}

func (*logoutCmd) SetFlags(*flag.FlagSet) {}

func (*logoutCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt := openRuntime(ctx)
	defer rt.Close()

	from := rt.Store.UserID()
	if err := rt.Session.Remove(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	rt.Monitor.Check(ctx)
	if from != "" {
		publishSessionChange(ctx, rt, identity.Classify(from, ""))
	}

	fmt.Println("Logged out")
	return subcommands.ExitSuccess
}

func publishSessionChange(ctx context.Context, rt *runtime, t identity.Transition) {
	if t.Kind == identity.None {
		return
	}
	client := InitAMQP(rt.logger, rt.cfg)
	if client == nil {
		return
	}
	defer client.Close()
	if err := client.PublishSessionChanged(ctx, string(t.Kind), t.To); err != nil {
		rt.logger.Warn("Failed to publish session event", log.FieldError, err)
	}
}

type purgeCmd struct {
	user string
}

func (*purgeCmd) Name() string     { return "purge" }
func (*purgeCmd) Synopsis() string { return "delete every stored collection of a user" }
func (*purgeCmd) Usage() string {
	return `fintracker purge [-user <user id>]

  Deletes the durable data of the given user, or of the logged in user.
`
}

func (c *purgeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "User whose data is deleted (defaults to the session user).")
}

func (c *purgeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt := openRuntime(ctx)
	defer rt.Close()

	user := strings.TrimSpace(c.user)
	if user == "" {
		user = rt.Store.UserID()
	}
	if user == "" {
		fmt.Fprintln(os.Stderr, errNotLoggedIn)
		return subcommands.ExitFailure
	}
	if err := rt.Scoped.Clear(ctx, user); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if user == rt.Store.UserID() {
		rt.Store.Load(ctx, user)
	}
	fmt.Printf("Deleted stored data of %s\n", user)
	return subcommands.ExitSuccess
}
