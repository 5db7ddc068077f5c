package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/threadkit/threadcache/comment"
)

// document is the stored shape of a comment.
type document struct {
	ID         string         `bson:"_id"`
	Content    string         `bson:"content"`
	EntityID   string         `bson:"entity_id"`
	EntityType string         `bson:"entity_type,omitempty"`
	AuthorID   string         `bson:"author_id"`
	ParentID   string         `bson:"parent_id"`
	Status     string         `bson:"status"`
	CreatedAt  time.Time      `bson:"created_at"`
	UpdatedAt  time.Time      `bson:"updated_at"`
	Metadata   map[string]any `bson:"metadata,omitempty"`
}

// MongoDB DateTime keeps milliseconds.
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

func fromRow(r comment.Row) document {
	return document{
		ID:         r.ID,
		Content:    r.Content,
		EntityID:   r.EntityID,
		EntityType: r.EntityType,
		AuthorID:   r.AuthorID,
		ParentID:   r.ParentID,
		Status:     string(r.Status),
		CreatedAt:  toMS(r.CreatedAt),
		UpdatedAt:  toMS(r.UpdatedAt),
		Metadata:   r.Metadata,
	}
}

func (d document) row() comment.Row {
	return comment.Row{
		ID:         d.ID,
		Content:    d.Content,
		EntityID:   d.EntityID,
		EntityType: d.EntityType,
		AuthorID:   d.AuthorID,
		ParentID:   d.ParentID,
		Status:     comment.Status(d.Status),
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
		Metadata:   d.Metadata,
	}
}

// Insert writes rows, replacing documents with the same id.
func (s *Store) Insert(ctx context.Context, rows ...comment.Row) error {
	const op = "store/mongo/Insert"

	if len(rows) == 0 {
		return nil
	}
	models := make([]mongodriver.WriteModel, len(rows))
	for i, r := range rows {
		models[i] = mongodriver.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: r.ID}}).
			SetReplacement(fromRow(r)).
			SetUpsert(true)
	}

	if _, err := s.comments.BulkWrite(ctx, models); err != nil {
		return classify(fmt.Errorf("%s: %w", op, err))
	}
	return nil
}

// FetchRows implements comment.Store. A limit <= 0 means no limit.
func (s *Store) FetchRows(ctx context.Context, filter comment.Filter, sort comment.Sort, limit, offset int) ([]comment.Row, error) {
	const op = "store/mongo/FetchRows"

	findOpts := options.Find().SetSort(sortDoc(sort))
	if offset > 0 {
		findOpts.SetSkip(int64(offset))
	}
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}

	cur, err := s.comments.Find(ctx, buildFilter(filter), findOpts)
	if err != nil {
		return nil, classify(fmt.Errorf("%s: find: %w", op, err))
	}
	defer cur.Close(ctx)

	rows := []comment.Row{}
	for cur.Next(ctx) {
		var d document
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}
		rows = append(rows, d.row())
	}
	if err := cur.Err(); err != nil {
		return nil, classify(fmt.Errorf("%s: cursor: %w", op, err))
	}
	return rows, nil
}

// FetchTotalCount implements comment.Store.
func (s *Store) FetchTotalCount(ctx context.Context, filter comment.Filter) (int, error) {
	const op = "store/mongo/FetchTotalCount"

	n, err := s.comments.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, classify(fmt.Errorf("%s: %w", op, err))
	}
	return int(n), nil
}

// buildFilter translates a comment.Filter into a query document.
func buildFilter(f comment.Filter) bson.D {
	q := bson.D{}

	if f.EntityID != "" {
		q = append(q, bson.E{Key: "entity_id", Value: f.EntityID})
	}
	if f.EntityType != "" {
		q = append(q, bson.E{Key: "entity_type", Value: f.EntityType})
	}
	if len(f.Statuses) > 0 {
		statuses := make(bson.A, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		q = append(q, bson.E{Key: "status", Value: bson.D{{Key: "$in", Value: statuses}}})
	}
	if len(f.AuthorIDs) > 0 {
		authors := make(bson.A, len(f.AuthorIDs))
		for i, id := range f.AuthorIDs {
			authors[i] = id
		}
		q = append(q, bson.E{Key: "author_id", Value: bson.D{{Key: "$in", Value: authors}}})
	}
	if f.RootsOnly {
		// $in with null also matches a missing field.
		q = append(q, bson.E{Key: "parent_id", Value: bson.D{{Key: "$in", Value: bson.A{"", nil}}}})
	}

	created := bson.D{}
	if !f.DateFrom.IsZero() {
		created = append(created, bson.E{Key: "$gte", Value: toMS(f.DateFrom)})
	}
	if !f.DateTo.IsZero() {
		created = append(created, bson.E{Key: "$lte", Value: toMS(f.DateTo)})
	}
	if len(created) > 0 {
		q = append(q, bson.E{Key: "created_at", Value: created})
	}

	if f.Contains != "" {
		q = append(q, bson.E{Key: "content", Value: primitive.Regex{
			Pattern: regexp.QuoteMeta(f.Contains),
			Options: "i",
		}})
	}
	return q
}

// sortDoc orders by the sort field, breaking ties by _id in the same direction.
func sortDoc(s comment.Sort) bson.D {
	field := "created_at"
	if s.Field == comment.SortByUpdatedAt {
		field = "updated_at"
	}
	dir := 1
	if s.Order == comment.SortDesc {
		dir = -1
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}

var (
	_ comment.Store  = (*Store)(nil)
	_ comment.Pinger = (*Store)(nil)
)
