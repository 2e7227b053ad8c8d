package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/catalog"
)

type catalogStore struct {
	session
}

var _ catalog.Store = (*catalogStore)(nil)

func NewCatalogStore(db *DB) *catalogStore {
	return &catalogStore{session: session{db: db}}
}

func (s *catalogStore) Atomic(_ context.Context, fn func(tx catalog.Store) error) error {
	return s.atomic(func(tx session) error {
		return fn(&catalogStore{session: tx})
	})
}

func trackNameTaken(t *tables, name string, exceptID int) bool {
	for _, tr := range t.tracks {
		if tr.Name == name && tr.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *catalogStore) CreateTrack(_ context.Context, tr catalog.Track) (catalog.Track, error) {
	err := s.update(func(t *tables) error {
		if trackNameTaken(t, tr.Name, 0) {
			return core.NewDuplicateError("duplicate value violates %q", "tracks_track_name_key")
		}
		tr.ID = int(t.nextPK())
		t.tracks = append(t.tracks, tr)
		return nil
	})
	return tr, err
}

func (s *catalogStore) UpdateTrack(_ context.Context, tr catalog.Track) (catalog.Track, error) {
	var updated catalog.Track
	err := s.update(func(t *tables) error {
		for i, old := range t.tracks {
			if old.ID != tr.ID {
				continue
			}
			if trackNameTaken(t, tr.Name, tr.ID) {
				return core.NewDuplicateError("duplicate value violates %q", "tracks_track_name_key")
			}
			updated = old
			updated.Name = tr.Name
			updated.StartDate = tr.StartDate
			updated.RecognitionCode = tr.RecognitionCode
			updated.UpdatedBy = tr.UpdatedBy
			updated.UpdaterRole = tr.UpdaterRole
			t.tracks[i] = updated
			return nil
		}
		return catalog.ErrTrackNotFound
	})
	return updated, err
}

func (s *catalogStore) DeleteTrack(_ context.Context, id int) error {
	return s.update(func(t *tables) error {
		for i, tr := range t.tracks {
			if tr.ID == id {
				t.tracks = append(t.tracks[:i:i], t.tracks[i+1:]...)
				return nil
			}
		}
		return catalog.ErrTrackNotFound
	})
}

func (s *catalogStore) GetTrack(_ context.Context, name string) (catalog.Track, error) {
	var found catalog.Track
	err := s.view(func(t *tables) error {
		for _, tr := range t.tracks {
			if tr.Name == name {
				found = tr
				return nil
			}
		}
		return catalog.ErrTrackNotFound
	})
	return found, err
}

func (s *catalogStore) ListTracks(context.Context) ([]catalog.Track, error) {
	var tracks []catalog.Track
	err := s.view(func(t *tables) error {
		tracks = append(make([]catalog.Track, 0, len(t.tracks)), t.tracks...)
		return nil
	})
	sort.SliceStable(tracks, func(i, j int) bool {
		if !tracks[i].StartDate.Equal(tracks[j].StartDate) {
			return tracks[i].StartDate.After(tracks[j].StartDate)
		}
		return tracks[i].Name < tracks[j].Name
	})
	return tracks, err
}

func (s *catalogStore) CreateBatch(_ context.Context, b catalog.Batch) (catalog.Batch, error) {
	err := s.update(func(t *tables) error {
		for _, other := range t.batches {
			if other.Name == b.Name {
				return core.NewDuplicateError("duplicate value violates %q", "batches_batch_name_key")
			}
		}
		b.ID = int(t.nextPK())
		t.batches = append(t.batches, b)
		return nil
	})
	return b, err
}

func (s *catalogStore) ListBatches(_ context.Context, trackName string) ([]catalog.Batch, error) {
	batches := make([]catalog.Batch, 0)
	err := s.view(func(t *tables) error {
		for _, b := range t.batches {
			if trackName == "" || b.TrackName == trackName {
				batches = append(batches, b)
			}
		}
		return nil
	})
	sort.SliceStable(batches, func(i, j int) bool {
		if !batches[i].StartDate.Equal(batches[j].StartDate) {
			return batches[i].StartDate.After(batches[j].StartDate)
		}
		return batches[i].Name < batches[j].Name
	})
	return batches, err
}

func (s *catalogStore) CountBatchesWithPrefix(_ context.Context, prefix string) (int, error) {
	var n int
	err := s.view(func(t *tables) error {
		for _, b := range t.batches {
			if strings.HasPrefix(b.Name, prefix) {
				n++
			}
		}
		return nil
	})
	return n, err
}
