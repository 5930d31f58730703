// Command blockpad is a block-structured page editor driven from the
// command line or by an AI agent over MCP.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"blockpad/internal/app"
	"blockpad/internal/commands"
	"blockpad/internal/config"
	"blockpad/internal/domain"
	"blockpad/internal/logging"
)

var version = "dev"

// CLI defines the command-line interface using Kong
var CLI struct {
	config.Config `embed:""`

	Mcp      McpCmd      `cmd:"" help:"Serve the MCP agent surface on stdin/stdout"`
	Pages    PagesCmd    `cmd:"" help:"Manage pages"`
	Blocks   BlocksCmd   `cmd:"" help:"Inspect and add blocks"`
	Edit     EditCmd     `cmd:"" help:"Replay a keystroke script against a page"`
	Commands CommandsCmd `cmd:"" help:"Show the slash menu for a query"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// runtime is bound into every command's Run method.
type runtime struct {
	ctx context.Context
	cfg config.Config
	log zerolog.Logger
	out io.Writer
}

// withApp opens the app, runs fn and closes the app even when fn fails.
func (rt *runtime) withApp(fn func(a *app.App) error) error {
	a, err := app.New(rt.ctx, rt.cfg, rt.log)
	if err != nil {
		return err
	}
	runErr := fn(a)

	closeCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.PersistTimeout+5*time.Second)
	defer cancel()
	if err := a.Close(closeCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (rt *runtime) printJSON(v any) error {
	enc := json.NewEncoder(rt.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ── mcp ─────────────────────────────────────────────────────

type McpCmd struct{}

func (c *McpCmd) Run(rt *runtime) error {
	return rt.withApp(func(a *app.App) error {
		return a.ServeMCP(version)
	})
}

// ── pages ───────────────────────────────────────────────────

type PagesCmd struct {
	List   PagesListCmd   `cmd:"" default:"1" help:"List pages"`
	Create PagesCreateCmd `cmd:"" help:"Create a page"`
	Rename PagesRenameCmd `cmd:"" help:"Rename a page"`
	Delete PagesDeleteCmd `cmd:"" help:"Delete a page and its blocks"`
}

type PagesListCmd struct{}

func (c *PagesListCmd) Run(rt *runtime) error {
	return rt.withApp(func(a *app.App) error {
		pages, err := a.Pages().ListPages(rt.ctx)
		if err != nil {
			return err
		}
		return rt.printJSON(pages)
	})
}

type PagesCreateCmd struct {
	Title  string `arg:"" help:"Page title"`
	Parent string `name:"parent" help:"Parent page ID"`
}

func (c *PagesCreateCmd) Run(rt *runtime) error {
	return rt.withApp(func(a *app.App) error {
		var parent *string
		if c.Parent != "" {
			parent = &c.Parent
		}
		p, err := a.Pages().CreatePage(rt.ctx, c.Title, parent)
		if err != nil {
			return err
		}
		return rt.printJSON(p)
	})
}

type PagesRenameCmd struct {
	ID    string `arg:"" help:"Page ID"`
	Title string `arg:"" help:"New title"`
}

func (c *PagesRenameCmd) Run(rt *runtime) error {
	return rt.withApp(func(a *app.App) error {
		p, err := a.Pages().RenamePage(rt.ctx, c.ID, c.Title)
		if err != nil {
			return err
		}
		return rt.printJSON(p)
	})
}

type PagesDeleteCmd struct {
	ID string `arg:"" help:"Page ID"`
}

func (c *PagesDeleteCmd) Run(rt *runtime) error {
	return rt.withApp(func(a *app.App) error {
		if err := a.Pages().DeletePage(rt.ctx, c.ID); err != nil {
			return err
		}
		fmt.Fprintf(rt.out, "deleted %s\n", c.ID)
		return nil
	})
}

// ── blocks ──────────────────────────────────────────────────

type BlocksCmd struct {
	List BlocksListCmd `cmd:"" help:"List the blocks of a page"`
	Add  BlocksAddCmd  `cmd:"" help:"Append a block to a page"`
}

type BlocksListCmd struct {
	Page string `arg:"" help:"Page ID"`
}

func (c *BlocksListCmd) Run(rt *runtime) error {
	return rt.withApp(func(a *app.App) error {
		state, err := a.Pages().GetPageState(rt.ctx, c.Page)
		if err != nil {
			return err
		}
		return rt.printJSON(state.Blocks)
	})
}

type BlocksAddCmd struct {
	Page    string `arg:"" help:"Page ID"`
	Type    string `arg:"" enum:"paragraph,heading,todo,code,image,video,pdf,table" help:"Block type"`
	Text    string `name:"text" short:"t" help:"Block text"`
	Content string `name:"content" help:"Content fields as JSON, merged over the type defaults"`
}

func (c *BlocksAddCmd) Run(rt *runtime) error {
	var content *domain.Content
	if c.Content != "" {
		content = &domain.Content{}
		if err := json.Unmarshal([]byte(c.Content), content); err != nil {
			return fmt.Errorf("parse --content: %w", err)
		}
	}
	if c.Text != "" {
		if content == nil {
			content = &domain.Content{}
		}
		content.Text = domain.Str(c.Text)
	}
	return rt.withApp(func(a *app.App) error {
		if _, err := a.Pages().GetPage(rt.ctx, c.Page); err != nil {
			return err
		}
		if err := a.Editor().Open(rt.ctx, c.Page); err != nil {
			return err
		}
		b, err := a.Editor().CreateBlock(domain.BlockType(c.Type), nil, content)
		if err != nil {
			return err
		}
		if err := a.Settle(rt.ctx); err != nil {
			return err
		}
		return rt.printJSON(b)
	})
}

// ── edit ────────────────────────────────────────────────────

type EditCmd struct {
	Page   string `arg:"" help:"Page ID"`
	Script string `name:"script" short:"s" required:"" help:"Script file, or - for stdin"`
}

func (c *EditCmd) Run(rt *runtime) error {
	var r io.Reader = os.Stdin
	if c.Script != "-" {
		f, err := os.Open(c.Script)
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		r = f
	}
	return rt.withApp(func(a *app.App) error {
		steps, err := a.Replay(rt.ctx, c.Page, r)
		if err != nil {
			return err
		}
		return rt.printJSON(steps)
	})
}

// ── commands ────────────────────────────────────────────────

type CommandsCmd struct {
	Query        string `arg:"" optional:"" help:"Text typed after the slash"`
	Descriptions bool   `name:"descriptions" short:"d" help:"Also match command descriptions"`
}

func (c *CommandsCmd) Run(rt *runtime) error {
	text := "/" + strings.TrimPrefix(c.Query, "/")
	menu := commands.Filter(text, commands.Catalog())
	if c.Descriptions {
		menu = commands.FilterWithDescriptions(text, commands.Catalog())
	}
	for i, cmd := range menu.Candidates {
		fmt.Fprintf(rt.out, "%d\t/%-10s %-12s %s\n", i, cmd.ID, cmd.Label, cmd.Description)
	}
	if !menu.Visible {
		fmt.Fprintln(rt.out, "no matching commands")
	}
	return nil
}

// ── version ─────────────────────────────────────────────────

type VersionCmd struct{}

func (v *VersionCmd) Run(rt *runtime) error {
	fmt.Fprintf(rt.out, "blockpad %s\n", version)
	return nil
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("blockpad"),
		kong.Description("Block-structured page editor with a slash-command palette"),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, "/etc/blockpad/config.json", "~/.config/blockpad/config.json"),
	)

	logData, err := logging.New().FromPath(CLI.LogFile).Level(CLI.LogLevel).Make()
	kctx.FatalIfErrorf(err)
	defer logData.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = kctx.Run(&runtime{
		ctx: ctx,
		cfg: CLI.Config,
		log: logData.Logger,
		out: os.Stdout,
	})
	kctx.FatalIfErrorf(err)
}
