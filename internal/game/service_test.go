package game

import (
	"context"
	"errors"
	"testing"

	"github.com/arcadia-lab/project-arcadia/internal/eventstore"
	"github.com/arcadia-lab/project-arcadia/internal/eventstore/memory"
	"github.com/arcadia-lab/project-arcadia/internal/messaging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestService_CreateGame(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, DefaultLimits())

	res, err := svc.CreateGame(context.Background(), CreateGameCommand{
		Input:        validCreateInput(),
		ActingUserID: "user-1",
	})
	require.NoError(t, err)
	require.Equal(t, "Test Game", res.Name)
	require.Equal(t, "59.99", res.Price)
	require.True(t, res.IsActive)
	require.Equal(t, uint64(1), res.Version)

	// Domain event persisted.
	history, err := store.LoadStream(context.Background(), res.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "game.created", history[0].EventType())

	// Integration event staged in the same append.
	staged := store.StagedMessages()
	require.Len(t, staged, 1)
	require.Equal(t, messaging.TopicGames, staged[0].Topic)
	require.Equal(t, "catalog.game-created", staged[0].EventType)
	require.Equal(t, res.ID, staged[0].Key)
	require.Equal(t, "user-1", staged[0].Headers[messaging.HeaderActingUserID])
}

func TestService_CreateGame_ValidationFailureStagesNothing(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, DefaultLimits())

	input := validCreateInput()
	input.Price = decimal.NewFromInt(-1)

	_, err := svc.CreateGame(context.Background(), CreateGameCommand{Input: input})
	require.Error(t, err)
	require.Empty(t, store.StagedMessages())
}

func TestService_CommitFailureIsAllOrNothing(t *testing.T) {
	store := memory.NewStore()
	store.FailCommit = errors.New("connection reset")
	svc := NewService(store, DefaultLimits())

	_, err := svc.CreateGame(context.Background(), CreateGameCommand{Input: validCreateInput()})
	require.Error(t, err)

	// Neither the domain events nor the staged messages survived.
	require.Empty(t, store.StagedMessages())
	envs, _, err := store.LoadByStreamType(context.Background(), StreamType, 0, 10)
	require.NoError(t, err)
	require.Empty(t, envs)
}

func TestService_ChangePrice(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, DefaultLimits())

	created, err := svc.CreateGame(context.Background(), CreateGameCommand{Input: validCreateInput()})
	require.NoError(t, err)

	res, err := svc.ChangePrice(context.Background(), ChangePriceCommand{
		GameID:       created.ID,
		Price:        decimal.NewFromFloat(29.99),
		ActingUserID: "user-1",
	})
	require.NoError(t, err)
	require.Equal(t, "29.99", res.Price)
	require.Equal(t, uint64(2), res.Version)

	staged := store.StagedMessages()
	require.Len(t, staged, 2)
	require.Equal(t, "catalog.game-price-changed", staged[1].EventType)
}

func TestService_RateGame_StagesNoIntegrationEvent(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, DefaultLimits())

	created, err := svc.CreateGame(context.Background(), CreateGameCommand{Input: validCreateInput()})
	require.NoError(t, err)

	_, err = svc.RateGame(context.Background(), RateGameCommand{GameID: created.ID, Rating: 7})
	require.NoError(t, err)

	// Rating changes are internal facts.
	staged := store.StagedMessages()
	require.Len(t, staged, 1)
	require.Equal(t, "catalog.game-created", staged[0].EventType)
}

func TestService_DeactivateStagesRemovedFact(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, DefaultLimits())

	created, err := svc.CreateGame(context.Background(), CreateGameCommand{Input: validCreateInput()})
	require.NoError(t, err)

	res, err := svc.DeactivateGame(context.Background(), DeactivateGameCommand{GameID: created.ID})
	require.NoError(t, err)
	require.False(t, res.IsActive)

	staged := store.StagedMessages()
	require.Len(t, staged, 2)
	require.Equal(t, "catalog.game-removed", staged[1].EventType)
}

func TestService_UnknownGame(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, DefaultLimits())

	_, err := svc.ChangeStatus(context.Background(), ChangeStatusCommand{GameID: "missing", Status: "Released"})
	require.ErrorIs(t, err, eventstore.ErrStreamNotFound)
}

func TestService_SecondCommandContinuesVersioning(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, DefaultLimits())

	created, err := svc.CreateGame(context.Background(), CreateGameCommand{Input: validCreateInput()})
	require.NoError(t, err)

	_, err = svc.ChangeStatus(context.Background(), ChangeStatusCommand{GameID: created.ID, Status: "Released"})
	require.NoError(t, err)
	res, err := svc.ChangeStatus(context.Background(), ChangeStatusCommand{GameID: created.ID, Status: "Discontinued"})
	require.NoError(t, err)
	require.Equal(t, uint64(3), res.Version)

	history, err := store.LoadStream(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i, env := range history {
		require.Equal(t, uint64(i+1), env.Version)
	}
}
