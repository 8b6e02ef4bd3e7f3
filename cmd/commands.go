package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"magal/internal/app"
	"magal/internal/config"
	"magal/internal/model"
	"magal/internal/pagination"
	"magal/internal/servises/session"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
)

var (
	errUsage    = errors.New("usage")
	errSignedIn = errors.New("not signed in, run `magal login`")
	errAdmin    = errors.New("administrator access required")
)

type access uint8

const (
	public access = iota
	member
	admin
)

type command struct {
	name   string
	args   string
	help   string
	access access

	// ownsToken commands manage the token themselves and skip the proactive refresh.
	ownsToken bool
	run       func(ctx context.Context, a *app.App, args []string, out io.Writer) error
}

var commands = []command{
	{name: "login", ownsToken: true, args: "-email E [-password P]", help: "sign in (password falls back to MAGAL_PASSWORD)", run: cmdLogin},
	{name: "register", ownsToken: true, args: "-nom N -prenom P -email E [-telephone T] -password P", help: "create an account and sign in", run: cmdRegister},
	{name: "logout", ownsToken: true, help: "sign out and forget the stored session", run: cmdLogout},
	{name: "whoami", help: "refresh and print the profile", access: member, run: cmdWhoami},
	{name: "refresh", ownsToken: true, help: "replace the stored token", access: member, run: cmdRefresh},
	{name: "events", args: "[-search S] [-statut actif|inactif] [-periode avenir|passes] [-sort asc|desc] [-page N]", help: "list events", run: cmdEvents},
	{name: "event", args: "ID", help: "show one event", run: cmdEvent},
	{name: "join", args: "ID", help: "register for an event", access: member, run: cmdJoin},
	{name: "leave", args: "ID", help: "cancel an event registration", access: member, run: cmdLeave},
	{name: "mine", help: "list my registrations", access: member, run: cmdMine},
	{name: "places", args: "[-type T] [-search S] [-page N]", help: "list points of interest", run: cmdPlaces},
	{name: "favorite", args: "[-remove] ID", help: "add or remove a favorite place", access: member, run: cmdFavorite},
	{name: "favorites", args: "[-page N]", help: "list my favorite places", access: member, run: cmdFavorites},
	{name: "notifications", args: "[-statut lues|non-lues] [-page N]", help: "list notifications", access: member, run: cmdNotifications},
	{name: "unread", help: "print the unread notification count", access: member, run: cmdUnread},
	{name: "read", args: "ID|all", help: "mark notifications as read", access: member, run: cmdRead},
	{name: "notify", args: "[-event ID] -titre T -message M", help: "send a notification", access: admin, run: cmdNotify},
	{name: "upload", args: "[-event ID] FILE", help: "upload an event image", access: admin, run: cmdUpload},
	{name: "env", ownsToken: true, help: "list the supported env variables", run: cmdEnv},
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: magal [-config FILE] COMMAND [ARGS]")
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range commands {
		fmt.Fprintf(tw, "  %s %s\t%s\n", c.name, c.args, c.help)
	}
	_ = tw.Flush()
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, a *app.App, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	c, ok := lookup(args[0])
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		printUsage(stderr)
		return 2
	}

	if err := execute(ctx, a, c, args[1:], stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "usage: magal %s %s\n", c.name, c.args)
			return 2
		}
		fmt.Fprintln(stderr, describe(err))
		return 1
	}
	return 0
}

func execute(ctx context.Context, a *app.App, c command, args []string, out io.Writer) error {
	if c.access >= member {
		if !a.Session.IsAuthenticated(ctx) {
			return errSignedIn
		}
		if c.access == admin && !a.Session.IsAdmin(ctx) {
			return errAdmin
		}
	}

	// Токен обновляем заранее, если он скоро истечет
	if !c.ownsToken && a.Session.IsAuthenticated(ctx) {
		if _, err := a.Session.EnsureFresh(ctx, a.Config.API.RefreshLeeway); err != nil {
			return err
		}
	}

	return c.run(ctx, a, args, out)
}

// describe keeps the user-facing message of session errors and drops the
// op chain.
func describe(err error) string {
	var serr *session.Error
	if errors.As(err, &serr) {
		return serr.Message
	}
	return err.Error()
}

func parse(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, errUsage
	}
	return id, nil
}

func cmdLogin(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "")
	password := fs.String("password", os.Getenv("MAGAL_PASSWORD"), "")
	if err := parse(fs, args); err != nil {
		return err
	}

	s, err := a.Session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "signed in as %s %s <%s>\n", s.User.Surname, s.User.Name, s.User.Email)
	return nil
}

func cmdRegister(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	var req model.RegisterRequest
	fs.StringVar(&req.Name, "nom", "", "")
	fs.StringVar(&req.Surname, "prenom", "", "")
	fs.StringVar(&req.Email, "email", "", "")
	fs.StringVar(&req.Phone, "telephone", "", "")
	fs.StringVar(&req.Password, "password", os.Getenv("MAGAL_PASSWORD"), "")
	if err := parse(fs, args); err != nil {
		return err
	}
	req.PasswordConfirmation = req.Password

	s, err := a.Session.Register(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "welcome %s, you are signed in\n", s.User.Surname)
	return nil
}

func cmdLogout(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
	if err := a.Session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "signed out")
	return nil
}

func cmdWhoami(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
	u, err := a.Session.GetProfile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s <%s> role=%s\n", u.Surname, u.Name, u.Email, u.Role)
	return nil
}

func cmdRefresh(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
	if _, err := a.Session.RefreshToken(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "token refreshed")
	return nil
}

func cmdEvents(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	f := pagination.DefaultEventFilter()
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	fs.StringVar(&f.Search, "search", "", "")
	fs.Func("statut", "", func(v string) error { f.Status = pagination.EventStatus(v); return nil })
	fs.Func("periode", "", func(v string) error { f.Period = pagination.EventPeriod(v); return nil })
	fs.Func("sort", "", func(v string) error { f.Sort = pagination.SortOrder(v); return nil })
	fs.IntVar(&f.Page, "page", 1, "")
	if err := parse(fs, args); err != nil {
		return err
	}

	page, err := a.Events.List(ctx, f)
	if err != nil {
		return err
	}
	if len(page.Data) == 0 {
		if f.Active() {
			fmt.Fprintln(out, "no event matches these filters")
		} else {
			fmt.Fprintln(out, "no events yet")
		}
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, e := range page.Data {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Title, e.DateTime, e.Location, seats(e))
	}
	_ = tw.Flush()
	printPagination(out, page.Pagination)
	return nil
}

func seats(e model.Event) string {
	switch {
	case e.Registered:
		return "registered"
	case e.Full:
		return "full"
	case e.SeatsLeft != nil:
		return strconv.Itoa(*e.SeatsLeft) + " left"
	default:
		return "open"
	}
}

func cmdEvent(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	e, err := a.Events.Get(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s\n%s, %s\n\n%s\n\n%d registered, %s\n", e.Title, e.DateTime, e.Location, e.Description, e.RegisteredCount, seats(*e))
	if e.ImageURL != "" {
		fmt.Fprintln(out, a.Files.ImageURL(e.ImageURL))
	}
	for _, p := range e.Participants {
		fmt.Fprintf(out, "  - %s %s <%s>\n", p.Surname, p.Name, p.Email)
	}
	return nil
}

func cmdJoin(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	resp, err := a.Events.Register(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, orDone(resp.Message))
	return nil
}

func cmdLeave(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	resp, err := a.Events.Unregister(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, orDone(resp.Message))
	return nil
}

func cmdMine(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
	regs, err := a.Events.MyRegistrations(ctx)
	if err != nil {
		return err
	}
	if len(regs) == 0 {
		fmt.Fprintln(out, "no registrations yet")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range regs {
		if r.Event == nil {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Event.ID, r.Event.Title, r.Event.DateTime, r.Event.Location)
	}
	return tw.Flush()
}

func cmdPlaces(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	f := pagination.DefaultPlaceFilter()
	fs := flag.NewFlagSet("places", flag.ContinueOnError)
	fs.Func("type", "", func(v string) error { f.Type = model.PlaceType(v); return nil })
	fs.StringVar(&f.Search, "search", "", "")
	fs.IntVar(&f.Page, "page", 1, "")
	if err := parse(fs, args); err != nil {
		return err
	}

	page, err := a.Places.List(ctx, f)
	if err != nil {
		return err
	}
	printPlaces(out, page)
	return nil
}

func cmdFavorite(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("favorite", flag.ContinueOnError)
	remove := fs.Bool("remove", false, "")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := parseID(fs.Args())
	if err != nil {
		return err
	}

	var resp *model.ActionResponse
	if *remove {
		resp, err = a.Places.RemoveFavorite(ctx, id)
	} else {
		resp, err = a.Places.AddFavorite(ctx, id)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, orDone(resp.Message))
	return nil
}

func cmdFavorites(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	f := pagination.DefaultPlaceFilter()
	fs := flag.NewFlagSet("favorites", flag.ContinueOnError)
	fs.IntVar(&f.Page, "page", 1, "")
	if err := parse(fs, args); err != nil {
		return err
	}

	page, err := a.Places.MyFavorites(ctx, f)
	if err != nil {
		return err
	}
	printPlaces(out, page)
	return nil
}

func printPlaces(out io.Writer, page *model.Page[model.Place]) {
	if len(page.Data) == 0 {
		fmt.Fprintln(out, "no places")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, p := range page.Data {
		star := ""
		if p.Favorite {
			star = "*"
		}
		fmt.Fprintf(tw, "%d%s\t%s\t%s\t%s\n", p.ID, star, p.Name, p.Type, p.Address)
	}
	_ = tw.Flush()
	printPagination(out, page.Pagination)
}

func cmdNotifications(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	f := pagination.DefaultNotificationFilter()
	fs := flag.NewFlagSet("notifications", flag.ContinueOnError)
	fs.Func("statut", "", func(v string) error { f.Status = pagination.ReadStatus(v); return nil })
	fs.IntVar(&f.Page, "page", 1, "")
	if err := parse(fs, args); err != nil {
		return err
	}

	page, err := a.Notifications.List(ctx, f)
	if err != nil {
		return err
	}
	if len(page.Data) == 0 {
		fmt.Fprintln(out, "no notifications")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, n := range page.Data {
		mark := "new"
		if n.Read {
			mark = ""
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", n.ID, mark, n.Title, n.SentAt)
	}
	_ = tw.Flush()
	printPagination(out, page.Pagination)
	return nil
}

func cmdUnread(ctx context.Context, a *app.App, _ []string, out io.Writer) error {
	n, err := a.Notifications.UnreadCount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, n)
	return nil
}

func cmdRead(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) == 1 && args[0] == "all" {
		n, err := a.Notifications.MarkAllRead(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d marked as read\n", n)
		return nil
	}

	id, err := parseID(args)
	if err != nil {
		return err
	}
	if err := a.Notifications.MarkRead(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(out, "marked as read")
	return nil
}

func cmdNotify(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("notify", flag.ContinueOnError)
	eventID := fs.Int64("event", 0, "")
	var b model.Broadcast
	fs.StringVar(&b.Title, "titre", "", "")
	fs.StringVar(&b.Message, "message", "", "")
	if err := parse(fs, args); err != nil {
		return err
	}

	var (
		res *model.BroadcastResult
		err error
	)
	if *eventID > 0 {
		res, err = a.Notifications.SendToRegistrants(ctx, *eventID, b)
	} else {
		res, err = a.Notifications.SendToAll(ctx, b)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s (%d recipients)\n", orDone(res.Message), res.Count)
	return nil
}

func cmdUpload(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	eventID := fs.String("event", "", "")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	path := fs.Arg(0)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	url, err := a.Files.UploadEventImage(ctx, filepath.Base(path), f, *eventID)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, a.Files.ImageURL(url))
	return nil
}

func cmdEnv(_ context.Context, _ *app.App, _ []string, out io.Writer) error {
	_, err := fmt.Fprintln(out, strings.TrimSpace(config.Usage()))
	return err
}

func printPagination(out io.Writer, p model.Pagination) {
	window := pagination.Window(p, 2)
	if window == nil {
		fmt.Fprintf(out, "%d total\n", p.Total)
		return
	}

	pages := make([]string, 0, len(window))
	for _, n := range window {
		if n == p.CurrentPage {
			pages = append(pages, "["+strconv.Itoa(n)+"]")
			continue
		}
		pages = append(pages, strconv.Itoa(n))
	}
	fmt.Fprintf(out, "page %d/%d, %d total: %s\n", p.CurrentPage, p.LastPage, p.Total, strings.Join(pages, " "))
}

func orDone(msg string) string {
	if msg == "" {
		return "done"
	}
	return msg
}
