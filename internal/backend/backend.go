// Package backend provides typed clients for the bot's backend
// collaborators. Each method maps one REST endpoint to an explicit record;
// responses that do not match the record fail with a DecodeError.
package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/butecodosdevs/buteco-linebot-go/internal/apiclient"
	"github.com/butecodosdevs/buteco-linebot-go/internal/config"
	"github.com/butecodosdevs/buteco-linebot-go/internal/metrics"
)

// ID is a backend identifier. Backends return ids as JSON numbers or
// strings; both decode into the same textual form.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits numeric ids as numbers so backends that expect an
// integer key accept them.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string {
	return string(id)
}

// Clients bundles one typed client per backend.
type Clients struct {
	Users      *UserClient
	Balance    *BalanceClient
	Coins      *CoinClient
	Bets       *BetClient
	AI         *AIClient
	Political  *PoliticalClient
	Challenges *ChallengeClient
	Health     *HealthChecker
}

// New wires every typed client onto api using the configured base URLs.
func New(api *apiclient.Client, cfg *config.Config, m *metrics.Metrics) *Clients {
	ep := func(name string) *apiclient.Endpoint {
		return api.Endpoint(name, cfg.Backends[name])
	}

	endpoints := make([]*apiclient.Endpoint, 0, len(config.BackendNames))
	for _, name := range config.BackendNames {
		endpoints = append(endpoints, ep(name))
	}

	return &Clients{
		Users:      NewUserClient(ep(config.BackendClient), m),
		Balance:    NewBalanceClient(ep(config.BackendBalance)),
		Coins:      NewCoinClient(ep(config.BackendCoin)),
		Bets:       NewBetClient(ep(config.BackendBet)),
		AI:         NewAIClient(ep(config.BackendAI), config.AIGenerate),
		Political:  NewPoliticalClient(ep(config.BackendPolitical)),
		Challenges: NewChallengeClient(ep(config.BackendChallenge)),
		Health:     NewHealthChecker(endpoints, config.BackendHealthCheck),
	}
}
