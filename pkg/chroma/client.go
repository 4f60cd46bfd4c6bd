package chroma

import (
	"context"
	"fmt"
	"log"

	"github.com/amo-ladoja/neriah/pkg/config"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings/openai"
)

// ChromaClient maintains a semantic index over extracted items so chat
// queries can fall back to similarity search when keyword filters come
// up empty.
type ChromaClient struct {
	client     chroma.Client
	embedFunc  *openai.OpenAIEmbeddingFunction
	config     *config.Config
	collection chroma.Collection
}

func NewChromaClient(cfg *config.Config) (*ChromaClient, error) {
	if cfg.ChromaAPIKey == "" {
		return nil, fmt.Errorf("CHROMA_API_KEY is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for item embeddings")
	}

	embedFunc, err := openai.NewOpenAIEmbeddingFunction(cfg.OpenAIAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI embedding function: %w", err)
	}

	// Chroma Cloud endpoint - https://api.trychroma.com:8000/api/v2
	var client chroma.Client
	if cfg.ChromaDatabase != "" && cfg.ChromaTenant != "" {
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
			chroma.WithDatabaseAndTenant(cfg.ChromaDatabase, cfg.ChromaTenant),
		)
	} else if cfg.ChromaTenant != "" {
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
			chroma.WithTenant(cfg.ChromaTenant),
		)
	} else {
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create Chroma client: %w", err)
	}

	ctx := context.Background()
	collection, err := client.GetOrCreateCollection(
		ctx,
		"items",
		chroma.WithEmbeddingFunctionCreate(embedFunc),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	log.Printf("[Chroma] Initialized client with collection: items")

	return &ChromaClient{
		client:     client,
		embedFunc:  embedFunc,
		config:     cfg,
		collection: collection,
	}, nil
}

// GetCollection returns the pre-created collection
func (c *ChromaClient) GetCollection() chroma.Collection {
	return c.collection
}

// UpsertItemEmbedding indexes one extracted item. Using the item ID as
// document ID makes repeated indexing idempotent.
func (c *ChromaClient) UpsertItemEmbedding(ctx context.Context, itemID, userID, category, title, description string) error {
	collection := c.GetCollection()

	text := fmt.Sprintf("Title: %s\n\nDescription: %s", title, description)
	if len(text) > 10000 {
		// Embedding models have token limits
		text = text[:10000]
	}

	metadata, err := chroma.NewDocumentMetadataFromMap(map[string]interface{}{
		"user_id":  userID,
		"item_id":  itemID,
		"category": category,
		"title":    title,
	})
	if err != nil {
		return fmt.Errorf("failed to create metadata: %w", err)
	}

	err = collection.Upsert(
		ctx,
		chroma.WithIDs(chroma.DocumentID(itemID)),
		chroma.WithMetadatas(metadata),
		chroma.WithTexts(text),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert item embedding: %w", err)
	}

	return nil
}

// SemanticSearch returns item IDs for the user ordered by similarity
// to the query, with their distances.
func (c *ChromaClient) SemanticSearch(ctx context.Context, userID, query string, limit int) ([]string, []float64, error) {
	collection := c.GetCollection()
	if collection == nil {
		return nil, nil, fmt.Errorf("collection is nil")
	}

	where := chroma.EqString("user_id", userID)

	results, err := collection.Query(
		ctx,
		chroma.WithQueryTexts(query),
		chroma.WithNResults(limit),
		chroma.WithWhereQuery(where),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query collection: %w", err)
	}

	if results == nil || results.CountGroups() == 0 {
		return []string{}, []float64{}, nil
	}

	idGroups := results.GetIDGroups()
	distanceGroups := results.GetDistancesGroups()

	if len(idGroups) == 0 || len(idGroups[0]) == 0 {
		return []string{}, []float64{}, nil
	}

	itemIDs := make([]string, 0, len(idGroups[0]))
	for _, id := range idGroups[0] {
		itemIDs = append(itemIDs, string(id))
	}

	distances := []float64{}
	if len(distanceGroups) > 0 && len(distanceGroups[0]) > 0 {
		for _, d := range distanceGroups[0] {
			distances = append(distances, float64(d))
		}
	}

	log.Printf("[Chroma] Semantic search returned %d results for user %s", len(itemIDs), userID)
	return itemIDs, distances, nil
}

// DeleteItemEmbedding removes one item from the index
func (c *ChromaClient) DeleteItemEmbedding(ctx context.Context, itemID string) error {
	collection := c.GetCollection()

	err := collection.Delete(ctx, chroma.WithIDsDelete(chroma.DocumentID(itemID)))
	if err != nil {
		return fmt.Errorf("failed to delete item embedding: %w", err)
	}

	return nil
}
