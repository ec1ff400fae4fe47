package client

import (
	"context"
	"fmt"

	"github.com/shelfy/shelfy/pkg/shelfy/models"
	"github.com/shelfy/shelfy/pkg/shelfy/products"
)

// BulkResult reports a best-effort batch: how many items were actually
// processed (missing ids and per-item failures are skipped, not rolled
// back) and a warning per skipped item.
type BulkResult struct {
	Processed int      `json:"processed"`
	Warnings  []string `json:"warnings,omitempty"`
}

// BulkFieldUpdate is the partial update applied by BulkUpdate. Nil fields
// are left untouched on every product.
type BulkFieldUpdate struct {
	Category *string
	Badge    *string
}

// BulkDelete deletes each product id in turn.
func (c *Client) BulkDelete(ctx context.Context, ids []uint) (BulkResult, error) {
	var result BulkResult
	for _, id := range ids {
		if err := c.DeleteProduct(ctx, id); err != nil {
			if IsNotFound(err) {
				result.Warnings = append(result.Warnings, fmt.Sprintf("product %d: not found", id))
				continue
			}
			result.Warnings = append(result.Warnings, fmt.Sprintf("product %d: %v", id, err))
			continue
		}
		result.Processed++
	}
	return result, nil
}

// BulkUpdate applies the same partial field update to each product id.
func (c *Client) BulkUpdate(ctx context.Context, ids []uint, update BulkFieldUpdate) (BulkResult, error) {
	if update.Category == nil && update.Badge == nil {
		return BulkResult{}, &ValidationError{"no fields to update"}
	}

	var result BulkResult
	for _, id := range ids {
		req := products.UpdateProductRequest{ID: id, Badge: update.Badge}
		if update.Category != nil {
			req.Category = *update.Category
		}
		if err := c.UpdateProduct(ctx, req); err != nil {
			if IsNotFound(err) {
				result.Warnings = append(result.Warnings, fmt.Sprintf("product %d: not found", id))
				continue
			}
			result.Warnings = append(result.Warnings, fmt.Sprintf("product %d: %v", id, err))
			continue
		}
		result.Processed++
	}
	return result, nil
}

// BulkMove moves products from one collection to another: an equivalent
// product is created in the target (new id, fresh created timestamp) and
// the original is deleted from the source, resequencing both collections
// through the single-item primitives.
func (c *Client) BulkMove(ctx context.Context, sourceID, targetID string, ids []uint) (BulkResult, error) {
	return c.bulkCopy(ctx, sourceID, targetID, ids, true)
}

// BulkDuplicate copies products into another collection, leaving the
// source collection completely untouched.
func (c *Client) BulkDuplicate(ctx context.Context, sourceID, targetID string, ids []uint) (BulkResult, error) {
	return c.bulkCopy(ctx, sourceID, targetID, ids, false)
}

func (c *Client) bulkCopy(ctx context.Context, sourceID, targetID string, ids []uint, deleteSource bool) (BulkResult, error) {
	if sourceID == targetID {
		return BulkResult{}, &ValidationError{"target collection must differ from source"}
	}

	source, err := c.Products(ctx, sourceID)
	if err != nil {
		return BulkResult{}, err
	}
	// fail early on an unknown target rather than per item
	if _, err := c.Products(ctx, targetID); err != nil {
		return BulkResult{}, err
	}

	byID := make(map[uint]models.Product, len(source))
	for _, p := range source {
		byID[p.ID] = p
	}

	var result BulkResult
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("product %d: not found in source collection", id))
			continue
		}

		req := products.CreateProductRequest{
			CollectionID:  targetID,
			Name:          p.Name,
			Description:   p.Description,
			Price:         p.Price,
			AffiliateLink: p.AffiliateLink,
			ImageURL:      p.ImageURL,
			Category:      p.Category,
			Badge:         p.Badge,
			Clicks:        p.Clicks,
		}
		if _, err := c.CreateProduct(ctx, req); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("product %d: %v", id, err))
			continue
		}

		if deleteSource {
			if err := c.DeleteProduct(ctx, id); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("product %d: copied but not removed from source: %v", id, err))
				continue
			}
		}
		result.Processed++
	}
	return result, nil
}
