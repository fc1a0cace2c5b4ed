package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"weaver/internal/game"
	"weaver/internal/store"
)

type gameDoc struct {
	UserID        string    `firestore:"user_id"`
	Era           string    `firestore:"era"`
	Theme         string    `firestore:"theme"`
	CharacterName string    `firestore:"character_name"`
	TurnCount     int       `firestore:"turn_count"`
	MemoryCount   int       `firestore:"memory_count"`
	Data          string    `firestore:"data"`
	CreatedAt     time.Time `firestore:"created_at"`
	UpdatedAt     time.Time `firestore:"updated_at"`
}

type memoryDoc struct {
	Position    int       `firestore:"position"`
	Title       string    `firestore:"title"`
	Description string    `firestore:"description"`
	Category    string    `firestore:"category"`
	CreatedAt   time.Time `firestore:"created_at"`
}

func (c *Client) GetGame(ctx context.Context, userID, gameID string) (*game.State, error) {
	ref := c.games(userID).Doc(gameID)
	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting game: %w", err)
	}

	var doc gameDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("reading game document: %w", err)
	}
	state, err := store.DecodeGame([]byte(doc.Data))
	if err != nil {
		return nil, err
	}

	memories, err := ref.Collection(memoriesCollection).OrderBy("position", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("listing memories: %w", err)
	}
	for _, msnap := range memories {
		var m memoryDoc
		if err := msnap.DataTo(&m); err != nil {
			return nil, fmt.Errorf("reading memory %s: %w", msnap.Ref.ID, err)
		}
		state.Memories = append(state.Memories, game.Memory{
			ID:          msnap.Ref.ID,
			Title:       m.Title,
			Description: m.Description,
			Category:    m.Category,
			Timestamp:   m.CreatedAt,
		})
	}
	return state, nil
}

func (c *Client) PutGame(ctx context.Context, userID string, state *game.State) error {
	if err := store.CheckPut(userID, state); err != nil {
		return err
	}
	data, err := store.EncodeGame(state)
	if err != nil {
		return err
	}

	ref := c.games(userID).Doc(state.ID)
	stored, err := storedMemoryCount(ctx, ref)
	if err != nil {
		return err
	}

	// Memories go first so memory_count never runs ahead of them.
	if err := c.createMemories(ctx, ref, newMemories(store.MemoryRecords(state), stored)); err != nil {
		return err
	}

	_, err = ref.Set(ctx, gameDoc{
		UserID:        userID,
		Era:           state.Era,
		Theme:         state.Theme,
		CharacterName: state.Character.Name,
		TurnCount:     state.TurnCount,
		MemoryCount:   len(state.Memories),
		Data:          string(data),
		CreatedAt:     state.CreatedAt,
		UpdatedAt:     state.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("writing game: %w", err)
	}
	return nil
}

func storedMemoryCount(ctx context.Context, ref *firestore.DocumentRef) (int, error) {
	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("getting game: %w", err)
	}
	var doc gameDoc
	if err := snap.DataTo(&doc); err != nil {
		return 0, fmt.Errorf("reading game document: %w", err)
	}
	return doc.MemoryCount, nil
}

// newMemories returns the records at or past the stored count.
func newMemories(records []store.MemoryRecord, stored int) []store.MemoryRecord {
	if stored <= 0 {
		return records
	}
	if stored >= len(records) {
		return nil
	}
	return records[stored:]
}

func (c *Client) createMemories(ctx context.Context, ref *firestore.DocumentRef, records []store.MemoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	bw := c.fs.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(records))
	for _, m := range records {
		job, err := bw.Create(ref.Collection(memoriesCollection).Doc(m.ID), memoryDoc{
			Position:    m.Position,
			Title:       m.Title,
			Description: m.Description,
			Category:    m.Category,
			CreatedAt:   m.Timestamp,
		})
		if err != nil {
			bw.End()
			return fmt.Errorf("queueing memory %s: %w", m.ID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	var errs []error
	for _, job := range jobs {
		// Left over from an earlier write whose game document failed.
		if _, err := job.Results(); err != nil && status.Code(err) != codes.AlreadyExists {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("writing memories: %w", err)
	}
	return nil
}

func (c *Client) ListGames(ctx context.Context, userID string) ([]store.GameSummary, error) {
	docs, err := c.games(userID).OrderBy("updated_at", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}

	games := make([]store.GameSummary, 0, len(docs))
	for _, snap := range docs {
		var doc gameDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("reading game %s: %w", snap.Ref.ID, err)
		}
		games = append(games, store.GameSummary{
			ID:            snap.Ref.ID,
			Era:           doc.Era,
			Theme:         doc.Theme,
			CharacterName: doc.CharacterName,
			TurnCount:     doc.TurnCount,
			MemoryCount:   doc.MemoryCount,
			CreatedAt:     doc.CreatedAt,
			UpdatedAt:     doc.UpdatedAt,
		})
	}
	return games, nil
}

// DeleteGame removes the memories subcollection before the game document,
// since Firestore does not cascade deletes.
func (c *Client) DeleteGame(ctx context.Context, userID, gameID string) error {
	ref := c.games(userID).Doc(gameID)
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return store.ErrNotFound
		}
		return fmt.Errorf("getting game: %w", err)
	}

	memories, err := ref.Collection(memoriesCollection).DocumentRefs(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("listing memories: %w", err)
	}
	if len(memories) > 0 {
		bw := c.fs.BulkWriter(ctx)
		jobs := make([]*firestore.BulkWriterJob, 0, len(memories))
		for _, mref := range memories {
			job, err := bw.Delete(mref)
			if err != nil {
				bw.End()
				return fmt.Errorf("queueing memory delete: %w", err)
			}
			jobs = append(jobs, job)
		}
		bw.End()
		for _, job := range jobs {
			if _, err := job.Results(); err != nil {
				return fmt.Errorf("deleting memory: %w", err)
			}
		}
	}

	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("deleting game: %w", err)
	}
	return nil
}
