package app

import (
	mcpserver "blockpad/internal/mcp"
)

// ServeMCP runs the MCP server on stdin/stdout until the client disconnects.
// Editor events are forwarded to the client as notifications.
func (a *App) ServeMCP(version string) error {
	srv := mcpserver.New(mcpserver.Deps{
		Pages:   a.pages,
		Editor:  a.editor,
		Sync:    a.sync,
		Logger:  a.log,
		Version: version,
	})
	a.events.Attach(srv)

	a.log.Info().Str("backend", a.cfg.Backend).Msg("serving MCP on stdio")
	return srv.ServeStdio()
}
