package neo4j

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/campus-assistant/backend/internal/campus"
	"github.com/campus-assistant/backend/internal/knowledge"
	"github.com/campus-assistant/backend/internal/language"
	"github.com/campus-assistant/backend/internal/metrics"
	"github.com/campus-assistant/backend/pkg/circuitbreaker"
	"github.com/campus-assistant/backend/pkg/logger"
	"github.com/campus-assistant/backend/pkg/retry"
)

const maxHops = 6

var ErrNoPath = errors.New("neo4j: no path between places")

// Client stores the walking routes as a graph of places so that routes
// with no direct entry can be answered by chaining legs.
type Client struct {
	driver      neo4j.DriverWithContext
	database    string
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewClient(ctx context.Context, uri, username, password, database string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(
		uri,
		neo4j.BasicAuth(username, password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	err = driver.VerifyConnectivity(ctx)
	if err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify connectivity: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}

	cb := circuitbreaker.NewCircuitBreaker("neo4j", circuitbreaker.Config{
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          20 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		IsFailure:        func(err error) bool { return !errors.Is(err, ErrNoPath) },
		OnStateChange: func(name string, _ circuitbreaker.State, to circuitbreaker.State) {
			metrics.CircuitState.WithLabelValues(name).Set(float64(to))
		},
		Logger: logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   200 * time.Millisecond,
		MaxDelay:       3 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("Neo4j client initialized", zap.String("uri", uri), zap.String("database", database))

	return &Client{
		driver:      driver,
		database:    database,
		cb:          cb,
		retryConfig: retryConfig,
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Client) executeWithRetry(ctx context.Context, operation func(context.Context, neo4j.SessionWithContext) error) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return c.cb.Execute(ctx, func(ctx context.Context) error {
		return retry.Do(ctx, c.retryConfig, func(ctx context.Context) error {
			session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
			defer session.Close(ctx)
			return operation(ctx, session)
		})
	})
}

// Sync mirrors the route table into the graph. Existing places and routes
// are updated in place.
func (c *Client) Sync(ctx context.Context, routes []knowledge.Route) error {
	query := `
		MERGE (a:Place {key: $from})
		MERGE (b:Place {key: $to})
		MERGE (a)-[r:ROUTE]->(b)
		SET r.steps_en = $steps_en,
		    r.steps_ml = $steps_ml,
		    r.steps_manglish = $steps_manglish,
		    r.updated_at = timestamp()
	`

	err := c.executeWithRetry(ctx, func(ctx context.Context, session neo4j.SessionWithContext) error {
		for _, route := range routes {
			_, err := session.Run(ctx, query, map[string]interface{}{
				"from":           route.From,
				"to":             route.To,
				"steps_en":       route.Steps[language.English],
				"steps_ml":       route.Steps[language.Malayalam],
				"steps_manglish": route.Steps[language.Manglish],
			})
			if err != nil {
				return fmt.Errorf("failed to sync route %s -> %s: %w", route.From, route.To, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Route graph synced", zap.Int("routes", len(routes)))
	return nil
}

// FindPath returns the shortest chain of routes between two places, matched
// by case-insensitive containment of their labels.
func (c *Client) FindPath(ctx context.Context, from, to string, lang language.Language) (*campus.Directions, error) {
	from, to = strings.ToLower(strings.TrimSpace(from)), strings.ToLower(strings.TrimSpace(to))
	if from == "" || to == "" {
		return nil, ErrNoPath
	}

	query := fmt.Sprintf(`
		MATCH (a:Place), (b:Place)
		WHERE a <> b
		  AND (toLower(a.key) CONTAINS $from OR $from CONTAINS toLower(a.key))
		  AND (toLower(b.key) CONTAINS $to OR $to CONTAINS toLower(b.key))
		MATCH p = shortestPath((a)-[:ROUTE*..%d]->(b))
		RETURN a.key AS from_key, b.key AS to_key,
		       [r IN relationships(p) | r.steps_en] AS steps_en,
		       [r IN relationships(p) | r.steps_ml] AS steps_ml,
		       [r IN relationships(p) | r.steps_manglish] AS steps_manglish
		ORDER BY length(p)
		LIMIT 1
	`, maxHops)

	var dir *campus.Directions
	err := c.executeWithRetry(ctx, func(ctx context.Context, session neo4j.SessionWithContext) error {
		result, err := session.Run(ctx, query, map[string]interface{}{"from": from, "to": to})
		if err != nil {
			return fmt.Errorf("failed to find path: %w", err)
		}

		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return fmt.Errorf("error iterating results: %w", err)
			}
			return retry.Permanent(ErrNoPath)
		}

		record := result.Record()
		fromKey, _ := record.Get("from_key")
		toKey, _ := record.Get("to_key")
		en, _ := record.Get("steps_en")
		localized, _ := record.Get(stepsColumn(lang))

		legs := legsFrom(localized)
		if !complete(legs) {
			legs = legsFrom(en)
		}

		dir = &campus.Directions{
			From:  asString(fromKey),
			To:    asString(toKey),
			Steps: JoinLegs(legs),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Route path found",
		zap.String("from", dir.From),
		zap.String("to", dir.To),
		zap.Int("steps", len(dir.Steps)),
	)

	return dir, nil
}

// JoinLegs concatenates consecutive route legs, dropping the opening
// "you are at" step of every leg after the first.
func JoinLegs(legs [][]string) []string {
	var steps []string
	for i, leg := range legs {
		if i > 0 && len(leg) > 0 {
			leg = leg[1:]
		}
		steps = append(steps, leg...)
	}
	return steps
}

func stepsColumn(lang language.Language) string {
	switch lang {
	case language.Malayalam:
		return "steps_ml"
	case language.Manglish:
		return "steps_manglish"
	default:
		return "steps_en"
	}
}

func complete(legs [][]string) bool {
	if len(legs) == 0 {
		return false
	}
	for _, leg := range legs {
		if len(leg) == 0 {
			return false
		}
	}
	return true
}

func legsFrom(v interface{}) [][]string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	legs := make([][]string, 0, len(raw))
	for _, leg := range raw {
		items, _ := leg.([]interface{})
		steps := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				steps = append(steps, s)
			}
		}
		legs = append(legs, steps)
	}
	return legs
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
