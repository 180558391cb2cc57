// Package checklist keeps a task collection in a key-value store and derives
// the filtered view a surface renders.
package checklist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pkgz/lgr"

	"github.com/agalitsyn/checklist-bot/internal/model"
)

const DefaultKey = "checklist"

type CorruptPolicy string

const (
	// CorruptPolicyFail surfaces a malformed stored value to the caller.
	CorruptPolicyFail CorruptPolicy = "fail"
	// CorruptPolicyReset reads a malformed stored value as an empty
	// collection; the next write replaces it.
	CorruptPolicyReset CorruptPolicy = "reset"
)

func ParseCorruptPolicy(s string) (CorruptPolicy, error) {
	switch p := CorruptPolicy(s); p {
	case CorruptPolicyFail, CorruptPolicyReset:
		return p, nil
	case "":
		return CorruptPolicyFail, nil
	default:
		return "", fmt.Errorf("unknown corrupt policy %q", s)
	}
}

type Options struct {
	Key           string
	CorruptPolicy CorruptPolicy
	Logger        lgr.L
	Clock         func() time.Time
}

// Service owns the canonical collection stored under a single key. Every
// mutation is a full load-modify-persist round trip. Nothing serializes
// overlapping round trips: the later write wins.
type Service struct {
	store  model.KVStorage
	key    string
	policy CorruptPolicy
	ids    *IDGenerator
	log    lgr.L
}

func NewService(store model.KVStorage, opts Options) *Service {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.CorruptPolicy == "" {
		opts.CorruptPolicy = CorruptPolicyFail
	}
	if opts.Logger == nil {
		opts.Logger = lgr.NoOp
	}
	return &Service{
		store:  store,
		key:    opts.Key,
		policy: opts.CorruptPolicy,
		ids:    NewIDGenerator(opts.Clock),
		log:    opts.Logger,
	}
}

func (s *Service) Key() string {
	return s.key
}

func (s *Service) Load(ctx context.Context) (model.TaskCollection, error) {
	data, err := s.store.Get(ctx, s.key)
	if err != nil && !errors.Is(err, model.ErrKeyNotFound) {
		return nil, fmt.Errorf("could not read checklist: %w", err)
	}
	if len(data) == 0 {
		return model.TaskCollection{}, nil
	}

	c, err := DecodeCollection(data)
	if err != nil {
		cerr := &model.CorruptStateError{Key: s.key, Err: err}
		if s.policy == CorruptPolicyReset {
			s.log.Logf("[WARN] discarding stored checklist: %s", cerr)
			return model.TaskCollection{}, nil
		}
		return nil, cerr
	}
	return c, nil
}

func (s *Service) Persist(ctx context.Context, c model.TaskCollection) error {
	data, err := EncodeCollection(c)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("could not write checklist: %w", err)
	}
	s.log.Logf("[DEBUG] persisted %d tasks under key %q", len(c), s.key)
	return nil
}

func (s *Service) Add(ctx context.Context, title string) (model.TaskCollection, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &model.ValidationError{Field: "title", Err: model.ErrFieldRequired}
	}
	if !utf8.ValidString(title) {
		return nil, &model.ValidationError{Field: "title", Err: model.ErrInvalidText}
	}

	c, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	task := model.NewTask(s.ids.Next(c.MaxID()), title)
	c = append(c, task)
	if err := s.Persist(ctx, c); err != nil {
		return nil, err
	}
	s.log.Logf("[DEBUG] added task id=%d", task.ID)
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id int64) (model.TaskCollection, error) {
	c, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	res := make(model.TaskCollection, 0, len(c))
	for _, t := range c {
		if t.ID != id {
			res = append(res, t)
		}
	}
	if len(res) == len(c) {
		s.log.Logf("[DEBUG] delete: no task id=%d", id)
	}

	if err := s.Persist(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// AdvanceState sets the status of task id. Any status is accepted whatever
// the current one; transition rules belong to the caller.
func (s *Service) AdvanceState(ctx context.Context, id int64, status model.TaskStatus) (model.TaskCollection, error) {
	if !status.Valid() {
		return nil, &model.ValidationError{Field: "status", Err: fmt.Errorf("unknown status %q", status)}
	}

	c, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range c {
		if c[i].ID == id {
			c[i].Status = status
			found = true
		}
	}
	if !found {
		s.log.Logf("[DEBUG] advance: no task id=%d", id)
	}

	if err := s.Persist(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
