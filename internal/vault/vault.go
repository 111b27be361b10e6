// Package vault coordinates the unlock protocol: enrolling items behind
// a three-pose gesture password and releasing them when the password is
// reproduced. It owns the only call paths that open the lock window.
package vault

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/tristanduncombe/DECO3500/internal/detector"
	"github.com/tristanduncombe/DECO3500/internal/fingerprint"
	"github.com/tristanduncombe/DECO3500/internal/images"
	"github.com/tristanduncombe/DECO3500/internal/lock"
	"github.com/tristanduncombe/DECO3500/internal/store"
)

// Config holds the tunables of the unlock protocol.
type Config struct {
	// Threshold is the per-position similarity score an attempt must
	// reach on all three poses.
	Threshold float64

	// AddWindow is how long the compartment stays open after enrolling
	// an item, so the user can put it inside.
	AddWindow time.Duration

	// TakeWindow is how long the compartment stays open after a
	// successful unlock.
	TakeWindow time.Duration
}

// ExtractionError reports which password or attempt photo could not be
// turned into a fingerprint.
type ExtractionError struct {
	Photo int // 1-based position in the sequence
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("photo %d: %v", e.Photo, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Vault is the unlock protocol orchestrator.
type Vault struct {
	detector detector.Detector
	store    *store.Store
	images   *images.Store
	lock     *lock.Machine
	config   Config
}

// New creates a Vault over the given collaborators.
func New(d detector.Detector, s *store.Store, img *images.Store, m *lock.Machine, config Config) *Vault {
	return &Vault{
		detector: d,
		store:    s,
		images:   img,
		lock:     m,
		config:   config,
	}
}

// buildSequence runs landmark extraction and fingerprint construction
// for a full photo sequence. Any failure aborts the whole sequence with
// an ExtractionError naming the offending photo.
func (v *Vault) buildSequence(ctx context.Context, photos [fingerprint.SequenceLen][]byte) (fingerprint.Sequence, error) {
	var seq fingerprint.Sequence
	for i, photo := range photos {
		frame, err := v.detector.Detect(ctx, photo)
		if err != nil {
			return seq, &ExtractionError{Photo: i + 1, Err: err}
		}

		fp, err := fingerprint.Build(frame)
		if err != nil {
			return seq, &ExtractionError{Photo: i + 1, Err: err}
		}
		seq[i] = fp
	}
	return seq, nil
}

// AddItem enrolls an item: the three password photos become the stored
// fingerprint sequence, the person photo is persisted for the item
// listing, and the compartment opens for AddWindow so the item can be
// placed inside.
//
// The call is all-or-nothing: if any password photo fails extraction or
// persistence fails, no item exists, no image is kept, and the lock is
// untouched. Password photo bytes are discarded after fingerprinting.
func (v *Vault) AddItem(ctx context.Context, label string, personImage []byte, personImageName string, passwordPhotos [fingerprint.SequenceLen][]byte) (*store.Item, time.Time, error) {
	seq, err := v.buildSequence(ctx, passwordPhotos)
	if err != nil {
		return nil, time.Time{}, err
	}

	imageRef, err := v.images.Save(personImage, personImageName)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("persist person image: %w", err)
	}

	item := &store.Item{
		ID:           uuid.New().String(),
		Label:        label,
		PersonImage:  imageRef,
		Fingerprints: seq,
	}

	if err := v.store.Items().Create(item); err != nil {
		if rmErr := v.images.Remove(imageRef); rmErr != nil {
			log.Printf("Failed to roll back person image %s: %v", imageRef, rmErr)
		}
		return nil, time.Time{}, fmt.Errorf("create item: %w", err)
	}

	expiresAt, err := v.lock.OpenWindow(v.config.AddWindow)
	if err != nil {
		return nil, time.Time{}, err
	}

	return item, expiresAt, nil
}

// UnlockResult is the outcome of an unlock attempt. Scores always has
// one similarity score per pose position, accepted or not.
type UnlockResult struct {
	Success   bool
	Scores    [fingerprint.SequenceLen]float64
	ItemLabel string
	ExpiresAt time.Time
}

// AttemptUnlock matches three attempt photos against an item's stored
// password sequence. On acceptance the item is consumed (deleted, at
// most once across concurrent attempts) and the compartment opens for
// TakeWindow. On rejection the item and the lock are untouched; the
// scores tell the user how close each pose was.
//
// Returns store.ErrNotFound when the item does not exist, including
// when a concurrent attempt won the race and consumed it first.
func (v *Vault) AttemptUnlock(ctx context.Context, itemID string, attemptPhotos [fingerprint.SequenceLen][]byte) (*UnlockResult, error) {
	item, err := v.store.Items().GetByID(itemID)
	if err != nil {
		return nil, err
	}

	attempt, err := v.buildSequence(ctx, attemptPhotos)
	if err != nil {
		return nil, err
	}

	decision := fingerprint.Decide(item.Fingerprints, attempt, v.config.Threshold)
	if !decision.Accepted {
		return &UnlockResult{
			Success:   false,
			Scores:    decision.Scores,
			ItemLabel: item.Label,
		}, nil
	}

	// Consume is the serialization point: of two concurrent correct
	// attempts, exactly one deletes the row. The loser reports the item
	// as gone rather than a false negative score.
	if err := v.store.Items().Consume(item.ID); err != nil {
		return nil, err
	}

	if err := v.images.Remove(item.PersonImage); err != nil {
		log.Printf("Failed to remove person image %s for consumed item %s: %v", item.PersonImage, item.ID, err)
	}

	expiresAt, err := v.lock.OpenWindow(v.config.TakeWindow)
	if err != nil {
		return nil, err
	}

	return &UnlockResult{
		Success:   true,
		Scores:    decision.Scores,
		ItemLabel: item.Label,
		ExpiresAt: expiresAt,
	}, nil
}

// ItemSummary is the read-only projection of an item for listings.
// Fingerprints never leave the vault.
type ItemSummary struct {
	ID        string
	Label     string
	Thumbnail string
}

// ListItems returns all stored items, newest first.
func (v *Vault) ListItems() ([]ItemSummary, error) {
	items, err := v.store.Items().List()
	if err != nil {
		return nil, err
	}

	summaries := make([]ItemSummary, 0, len(items))
	for _, item := range items {
		summaries = append(summaries, ItemSummary{
			ID:        item.ID,
			Label:     item.Label,
			Thumbnail: "/api/images/" + item.PersonImage,
		})
	}
	return summaries, nil
}
