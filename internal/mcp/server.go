package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"weaver/internal/config"
	"weaver/internal/game"
	"weaver/internal/session"
	"weaver/internal/store"
)

// Games is the session registry the tools drive.
type Games interface {
	Start(ctx context.Context, setup game.Setup) (*session.Session, error)
	Get(ctx context.Context, gameID string) (*session.Session, error)
	List(ctx context.Context) ([]store.GameSummary, error)
	Delete(ctx context.Context, gameID string) error
}

type Server struct {
	catalog *config.Catalog
	games   Games
	mcp     *sdk.Server
}

func NewServer(catalog *config.Catalog, games Games, version string) *Server {
	s := &Server{
		catalog: catalog,
		games:   games,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "weaver",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
