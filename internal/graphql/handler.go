package graphql

import (
	_ "embed"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	graphqlgo "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"

	"ui-agent-backend/internal/jobs"
	"ui-agent-backend/internal/users"
)

//go:embed schema.graphql
var schemaSDL string

//go:embed graphiql.html
var graphiqlPage []byte

//go:embed dashboard.html
var dashboardPage []byte

const maxQueryDepth = 8

type Handler struct {
	relay *relay.Handler
}

// NewHandler parses the schema against the resolver set.
func NewHandler(userSvc *users.Service, jobSvc *jobs.Service) (*Handler, error) {
	schema, err := graphqlgo.ParseSchema(schemaSDL, NewResolver(userSvc, jobSvc),
		graphqlgo.MaxDepth(maxQueryDepth),
	)
	if err != nil {
		return nil, fmt.Errorf("parse graphql schema: %w", err)
	}
	return &Handler{relay: &relay.Handler{Schema: schema}}, nil
}

// RegisterRoutes mounts POST /graphql, the GraphiQL IDE on GET /graphql and
// the dashboard page. The auth middleware must run first so resolvers can
// read the principal from the request context.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/graphql", gin.WrapH(h.relay))
	rg.GET("/graphql", htmlPage(graphiqlPage))
	rg.GET("/dashboard", htmlPage(dashboardPage))
}

func htmlPage(page []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	}
}
