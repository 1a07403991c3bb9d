package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	"tally/internal/amqp"
	"tally/internal/cli"
	"tally/internal/core"
	"tally/internal/debounce"
	"tally/internal/export"
	"tally/internal/query"
)

var errNotLoggedIn = errors.New("not logged in, run 'tally login' first")

var cliArgs struct {
	Login    loginCmd    `cmd:"" help:"Authenticate against the remote store."`
	Register registerCmd `cmd:"" help:"Create a new account."`
	Logout   logoutCmd   `cmd:"" help:"End the current session."`
	Whoami   whoamiCmd   `cmd:"" help:"Show the authenticated identity."`
	List     listCmd     `cmd:"" help:"List transactions."`
	Add      addCmd      `cmd:"" help:"Record a new transaction."`
	Edit     editCmd     `cmd:"" help:"Change an existing transaction."`
	Rm       rmCmd       `cmd:"" help:"Delete a transaction."`
	Summary  summaryCmd  `cmd:"" help:"Show spending totals."`
	Refresh  refreshCmd  `cmd:"" help:"Reload transactions and totals from the remote store."`
	Export   exportCmd   `cmd:"" help:"Export transactions to Google Sheets."`
	Watch    watchCmd    `cmd:"" help:"Interactive search over the cached transactions."`
	Follow   followCmd   `cmd:"" help:"Tail transaction events published by other clients."`
}

func main() {
	logger := cli.SetupLogger()
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	app := cli.BuildApp(cfg, logger)
	defer app.Close()

	kctx := kong.Parse(&cliArgs,
		kong.Name("tally"),
		kong.Description("Expense tracking against a remote store."),
		kong.UsageOnError())
	err := kctx.Run(app)
	kctx.FatalIfErrorf(err)
}

func requireAuth(app *cli.App) error {
	if !app.Session.Authenticated() {
		return errNotLoggedIn
	}
	return nil
}

type loginCmd struct {
	Email    string `required:"" help:"Account email."`
	Password string `required:"" help:"Account password."`
}

func (c *loginCmd) Run(app *cli.App) error {
	if err := app.Session.Login(context.Background(), c.Email, c.Password); err != nil {
		return err
	}
	user, _ := app.Session.CurrentUser()
	fmt.Printf("logged in as %s\n", user.Username)
	return nil
}

type registerCmd struct {
	Username string `required:"" help:"Display name for the new account."`
	Email    string `required:"" help:"Account email."`
	Password string `required:"" help:"Account password."`
}

func (c *registerCmd) Run(app *cli.App) error {
	if err := app.Session.Register(context.Background(), c.Username, c.Email, c.Password); err != nil {
		return err
	}
	if app.Session.Authenticated() {
		fmt.Printf("registered and logged in as %s\n", c.Username)
	} else {
		fmt.Printf("registered %s, run 'tally login' to start a session\n", c.Username)
	}
	return nil
}

type logoutCmd struct{}

func (c *logoutCmd) Run(app *cli.App) error {
	app.Session.Logout()
	fmt.Println("logged out")
	return nil
}

type whoamiCmd struct{}

func (c *whoamiCmd) Run(app *cli.App) error {
	user, ok := app.Session.CurrentUser()
	if !ok {
		return errNotLoggedIn
	}
	fmt.Printf("%s <%s>\n", user.Username, user.Email)
	return nil
}

type listCmd struct {
	Search   string `help:"Case-insensitive match over title, description and category."`
	Category string `default:"all" help:"Filter by category, or 'all'."`
	Sort     string `default:"date" enum:"date,amount,title,category" help:"Sort key."`
	Order    string `default:"desc" enum:"asc,desc" help:"Sort order."`
	Page     int    `default:"1" help:"Page number, starting at 1."`
	PageSize int    `help:"Transactions per page (defaults to configuration)."`
	Offline  bool   `help:"Serve from the local snapshot without contacting the remote store."`
}

func (c *listCmd) Run(app *cli.App) error {
	var view []core.Transaction
	if c.Offline {
		if app.Snapshots == nil {
			return errors.New("offline snapshot not available")
		}
		txs, err := app.Snapshots.List(context.Background())
		if err != nil {
			return err
		}
		if at, ok := app.Snapshots.SavedAt(context.Background()); ok {
			fmt.Printf("offline snapshot from %s\n", at.Local().Format(time.RFC822))
		}
		view = txs
	} else {
		if err := requireAuth(app); err != nil {
			return err
		}
		if err := app.Expenses.Load(context.Background()); err != nil {
			return err
		}
		view = app.Expenses.Cache().Snapshot()
	}

	view = query.Search(view, c.Search)
	view = query.FilterByCategory(view, c.Category)
	view = query.SortBy(view, query.SortKey(c.Sort), query.SortOrder(c.Order))

	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = app.Config.PageSize
	}
	page := query.Paginate(view, pageSize, c.Page)
	if len(page) == 0 {
		fmt.Println("no transactions")
		return nil
	}

	printTransactions(page)
	fmt.Printf("page %d, showing %d of %d\n", c.Page, len(page), len(view))
	return nil
}

type addCmd struct {
	Title       string `required:"" help:"Short description of the transaction."`
	Amount      string `required:"" help:"Amount, e.g. 12.50."`
	Category    string `required:"" help:"One of the known categories."`
	Date        string `help:"Date as YYYY-MM-DD (defaults to today)."`
	Type        string `default:"expense" enum:"expense,income" help:"Transaction type."`
	Description string `help:"Optional longer note."`
}

func (c *addCmd) Run(app *cli.App) error {
	if err := requireAuth(app); err != nil {
		return err
	}

	amount, err := core.ParseAmount(c.Amount)
	if err != nil {
		return err
	}
	dateStr := c.Date
	if dateStr == "" {
		dateStr = time.Now().Format("2006-01-02")
	}
	date, err := core.ParseDate(dateStr)
	if err != nil {
		return err
	}

	created, err := app.Expenses.Create(context.Background(), core.Transaction{
		Title:       c.Title,
		Amount:      amount,
		Category:    c.Category,
		Description: c.Description,
		Date:        date,
		Type:        core.TransactionType(c.Type),
	})
	if err != nil {
		return err
	}
	fmt.Printf("added %s (%s)\n", created.Title, created.ID)
	return nil
}

type editCmd struct {
	ID          string  `arg:"" help:"Transaction to change."`
	Title       *string `help:"New title."`
	Amount      *string `help:"New amount."`
	Category    *string `help:"New category."`
	Date        *string `help:"New date as YYYY-MM-DD."`
	Type        *string `help:"New type (expense or income)."`
	Description *string `help:"New description."`
}

func (c *editCmd) Run(app *cli.App) error {
	if err := requireAuth(app); err != nil {
		return err
	}

	ctx := context.Background()
	tx, err := app.API.Get(ctx, c.ID)
	if err != nil {
		return err
	}

	if c.Title != nil {
		tx.Title = *c.Title
	}
	if c.Amount != nil {
		amount, err := core.ParseAmount(*c.Amount)
		if err != nil {
			return err
		}
		tx.Amount = amount
	}
	if c.Category != nil {
		tx.Category = *c.Category
	}
	if c.Date != nil {
		date, err := core.ParseDate(*c.Date)
		if err != nil {
			return err
		}
		tx.Date = date
	}
	if c.Type != nil {
		tx.Type = core.TransactionType(*c.Type)
	}
	if c.Description != nil {
		tx.Description = *c.Description
	}

	updated, err := app.Expenses.Update(ctx, c.ID, tx)
	if err != nil {
		return err
	}
	fmt.Printf("updated %s (%s)\n", updated.Title, updated.ID)
	return nil
}

type rmCmd struct {
	ID string `arg:"" help:"Transaction to delete."`
}

func (c *rmCmd) Run(app *cli.App) error {
	if err := requireAuth(app); err != nil {
		return err
	}
	if err := app.Expenses.Delete(context.Background(), c.ID); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", c.ID)
	return nil
}

type summaryCmd struct{}

func (c *summaryCmd) Run(app *cli.App) error {
	if err := requireAuth(app); err != nil {
		return err
	}

	ctx := context.Background()
	summary, ok := core.Summary{}, false
	if err := app.Expenses.LoadSummary(ctx); err == nil {
		summary, ok = app.Expenses.Summary()
	}
	if !ok {
		// Remote aggregate unavailable; compute from whatever is cached.
		if err := app.Expenses.Load(ctx); err != nil {
			return err
		}
		summary = query.ComputeSummary(app.Expenses.Cache().Snapshot())
	}

	fmt.Printf("total expenses:  %s (%d transactions)\n", summary.TotalExpenses, summary.TotalCount)
	fmt.Printf("this month:      %s\n", summary.MonthlyTotal)
	if len(summary.CategorySummary) > 0 {
		fmt.Println("by category:")
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		for _, category := range core.Categories {
			agg, ok := summary.CategorySummary[category]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "  %s\t%s\t%d\n", category, agg.Total, agg.Count)
		}
		w.Flush()
	}
	return nil
}

type refreshCmd struct{}

func (c *refreshCmd) Run(app *cli.App) error {
	if err := requireAuth(app); err != nil {
		return err
	}
	if err := app.Expenses.Refresh(context.Background()); err != nil {
		return err
	}
	fmt.Printf("refreshed %d transactions\n", app.Expenses.Cache().Len())
	return nil
}

type exportCmd struct{}

func (c *exportCmd) Run(app *cli.App) error {
	if err := requireAuth(app); err != nil {
		return err
	}
	if !app.Config.SheetsConfigured() {
		return errors.New("export not configured, set GOOGLE_SPREADSHEET_ID")
	}

	ctx := context.Background()
	exporter, err := export.NewSheetsExporter(ctx,
		app.Config.GoogleSpreadsheetID, app.Config.GoogleSheetName, app.Logger)
	if err != nil {
		return err
	}
	if err := app.Expenses.Load(ctx); err != nil {
		return err
	}
	txs := app.Expenses.Cache().Snapshot()
	if err := exporter.Export(ctx, txs); err != nil {
		return err
	}
	fmt.Printf("exported %d transactions to %s\n", len(txs), app.Config.GoogleSheetName)
	return nil
}

type watchCmd struct {
	Delay time.Duration `default:"300ms" help:"How long to wait after the last keystroke before searching."`
}

func (c *watchCmd) Run(app *cli.App) error {
	if err := requireAuth(app); err != nil {
		return err
	}
	if err := app.Expenses.Load(context.Background()); err != nil {
		return err
	}

	search := debounce.New(c.Delay, func(q string) {
		matches := query.Search(app.Expenses.Cache().Snapshot(), q)
		if len(matches) == 0 {
			fmt.Println("no matches")
			return
		}
		printTransactions(query.Recent(matches, 10))
	})
	defer search.Dispose()

	fmt.Println("type to search, empty line to quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}
		search.Submit(line)
	}
	return scanner.Err()
}

type followCmd struct{}

func (c *followCmd) Run(app *cli.App) error {
	if app.Events == nil {
		return errors.New("event stream not configured, set AMQP_URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("following transaction events, ctrl-c to stop")
	err := app.Events.ConsumeTransactionEvents(ctx, func(msg *amqp.TransactionEventMessage) error {
		fmt.Println(msg)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printTransactions(txs []core.Transaction) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTITLE\tAMOUNT\tCATEGORY\tTYPE")
	for _, tx := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Date, tx.Title, tx.Amount, tx.Category, tx.Type)
	}
	w.Flush()
}
