package directory

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"github.com/charmbracelet/log"
	"google.golang.org/api/option"
)

const firebaseRoot = "matches"

// rawListing reads records that other clients may have written with
// loose types.
type rawListing struct {
	MatchID   string      `json:"matchId"`
	HostName  string      `json:"hostName"`
	HostID    string      `json:"hostId"`
	CreatedAt interface{} `json:"createdAt"`
}

type FirebaseStore struct {
	client *db.Client
	logger *log.Logger
}

func NewFirebaseStore(ctx context.Context, databaseURL, credPath string, logger *log.Logger) (*FirebaseStore, error) {
	opt := option.WithCredentialsFile(credPath)
	cfg := &firebase.Config{DatabaseURL: databaseURL}
	app, err := firebase.NewApp(ctx, cfg, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing app: %w", err)
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing db client: %w", err)
	}
	return newFirebaseStore(client, logger), nil
}

func newFirebaseStore(client *db.Client, logger *log.Logger) *FirebaseStore {
	if logger == nil {
		logger = log.Default()
	}
	return &FirebaseStore{client: client, logger: logger.With("directory", "firebase")}
}

func (f *FirebaseStore) Publish(ctx context.Context, l Listing) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	f.logger.Debug("Publishing match", "match", l.MatchID)
	if err := f.client.NewRef(firebaseRoot+"/"+l.MatchID).Set(ctx, l); err != nil {
		return fmt.Errorf("failed to publish listing: %w", err)
	}
	return nil
}

func (f *FirebaseStore) List(ctx context.Context) ([]Listing, error) {
	var rawMap map[string]rawListing
	if err := f.client.NewRef(firebaseRoot).Get(ctx, &rawMap); err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}

	now := time.Now()
	list := make([]Listing, 0, len(rawMap))
	for id, raw := range rawMap {
		l := sanitizeListing(id, raw)
		if !l.Expired(now) {
			list = append(list, l)
		}
	}
	sortListings(list)
	return list, nil
}

func (f *FirebaseStore) Remove(ctx context.Context, matchID string) error {
	ref := f.client.NewRef(firebaseRoot + "/" + matchID)
	var raw rawListing
	if err := ref.Get(ctx, &raw); err != nil {
		return fmt.Errorf("failed to fetch listing: %w", err)
	}
	if raw.MatchID == "" && raw.HostID == "" {
		return ErrNotFound
	}
	if err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("failed to remove listing: %w", err)
	}
	return nil
}

func sanitizeListing(id string, raw rawListing) Listing {
	l := Listing{
		MatchID:  raw.MatchID,
		HostName: raw.HostName,
		HostID:   raw.HostID,
	}
	if l.MatchID == "" {
		l.MatchID = id
	}

	switch v := raw.CreatedAt.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			l.CreatedAt = t
		}
	case float64: // unix millis, as written by the REST console
		l.CreatedAt = time.UnixMilli(int64(v))
	}
	return l
}
