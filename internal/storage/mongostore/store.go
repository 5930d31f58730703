// Package mongostore is the MongoDB persistence adapter for pages and blocks.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"blockpad/internal/domain"
)

const (
	pagesCollection  = "pages"
	blocksCollection = "blocks"
)

type pageDoc struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	ParentID  *string   `bson:"parentId,omitempty"`
	IconURL   string    `bson:"iconUrl"`
	CoverURL  string    `bson:"coverUrl"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type blockDoc struct {
	ID        string         `bson:"_id"`
	PageID    string         `bson:"pageId"`
	Type      string         `bson:"type"`
	Order     float64        `bson:"order"`
	Content   domain.Content `bson:"content"`
	CreatedAt time.Time      `bson:"createdAt"`
	UpdatedAt time.Time      `bson:"updatedAt"`
}

// Store implements domain.Backend on MongoDB.
type Store struct {
	client *mongo.Client
	pages  *mongo.Collection
	blocks *mongo.Collection
	log    zerolog.Logger
}

var _ domain.Backend = (*Store)(nil)

// Open connects to uri and prepares the collections in database dbName.
func Open(ctx context.Context, uri, dbName string, logger zerolog.Logger) (*Store, error) {
	if dbName == "" {
		dbName = "blockpad"
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{
		client: client,
		pages:  db.Collection(pagesCollection),
		blocks: db.Collection(blocksCollection),
		log:    logger.With().Str("component", "mongostore").Str("database", dbName).Logger(),
	}
	if _, err := s.blocks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "pageId", Value: 1}, {Key: "order", Value: 1}},
	}); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create block index: %w", err)
	}
	s.log.Debug().Msg("mongo ready")
	return s, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// ── Blocks ──────────────────────────────────────────────────

func (s *Store) CreateBlock(ctx context.Context, b *domain.Block) error {
	now := time.Now().UTC()
	doc := blockDoc{
		ID:        b.ID,
		PageID:    b.PageID,
		Type:      string(b.Type),
		Order:     b.Order,
		Content:   b.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.blocks.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	b.CreatedAt, b.UpdatedAt = now, now
	return nil
}

func (s *Store) ListBlocks(ctx context.Context, pageID string) ([]domain.Block, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: 1}})
	cursor, err := s.blocks.Find(ctx, bson.M{"pageId": pageID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find blocks: %w", err)
	}
	defer cursor.Close(ctx)

	var blocks []domain.Block
	for cursor.Next(ctx) {
		var doc blockDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode block: %w", err)
		}
		blocks = append(blocks, doc.block())
	}
	return blocks, cursor.Err()
}

// UpdateBlock sets each patched content field under content.<field>, which
// leaves the other stored fields untouched.
func (s *Store) UpdateBlock(ctx context.Context, id string, patch domain.BlockPatch) error {
	set, err := updateFields(patch, time.Now().UTC())
	if err != nil {
		return err
	}
	res, err := s.blocks.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update block: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("block", id)
	}
	return nil
}

func (s *Store) DeleteBlock(ctx context.Context, id string) error {
	if _, err := s.blocks.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}

func (s *Store) DeleteBlocksByPage(ctx context.Context, pageID string) error {
	if _, err := s.blocks.DeleteMany(ctx, bson.M{"pageId": pageID}); err != nil {
		return fmt.Errorf("delete page blocks: %w", err)
	}
	return nil
}

// ── Pages ───────────────────────────────────────────────────

func (s *Store) CreatePage(ctx context.Context, p *domain.Page) error {
	now := time.Now().UTC()
	doc := pageDoc{
		ID:        p.ID,
		Title:     p.Title,
		ParentID:  p.ParentID,
		IconURL:   p.IconURL,
		CoverURL:  p.CoverURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.pages.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

func (s *Store) GetPage(ctx context.Context, id string) (*domain.Page, error) {
	var doc pageDoc
	err := s.pages.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("page", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	p := doc.page()
	return &p, nil
}

func (s *Store) ListPages(ctx context.Context) ([]domain.Page, error) {
	cursor, err := s.pages.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find pages: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []pageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode pages: %w", err)
	}
	pages := make([]domain.Page, len(docs))
	for i, d := range docs {
		pages[i] = d.page()
	}
	return pages, nil
}

func (s *Store) UpdatePage(ctx context.Context, p *domain.Page) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"title":     p.Title,
		"iconUrl":   p.IconURL,
		"coverUrl":  p.CoverURL,
		"updatedAt": now,
	}}
	if p.ParentID != nil {
		update["$set"].(bson.M)["parentId"] = *p.ParentID
	} else {
		update["$unset"] = bson.M{"parentId": ""}
	}
	res, err := s.pages.UpdateOne(ctx, bson.M{"_id": p.ID}, update)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("page", p.ID)
	}
	p.UpdatedAt = now
	return nil
}

func (s *Store) DeletePage(ctx context.Context, id string) error {
	if _, err := s.pages.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	return nil
}

// ── Documents ───────────────────────────────────────────────

func (d blockDoc) block() domain.Block {
	return domain.Block{
		ID:        d.ID,
		PageID:    d.PageID,
		Type:      domain.BlockType(d.Type),
		Order:     d.Order,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (d pageDoc) page() domain.Page {
	return domain.Page{
		ID:        d.ID,
		Title:     d.Title,
		ParentID:  d.ParentID,
		IconURL:   d.IconURL,
		CoverURL:  d.CoverURL,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// updateFields builds the $set document for a block patch.
func updateFields(patch domain.BlockPatch, now time.Time) (bson.M, error) {
	set := bson.M{"updatedAt": now}
	if patch.Type != nil {
		set["type"] = string(*patch.Type)
	}
	if patch.Order != nil {
		set["order"] = *patch.Order
	}
	if patch.Content != nil {
		raw, err := bson.Marshal(*patch.Content)
		if err != nil {
			return nil, fmt.Errorf("encode content: %w", err)
		}
		var fields bson.M
		if err := bson.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("decode content: %w", err)
		}
		for k, v := range fields {
			set["content."+k] = v
		}
	}
	return set, nil
}
