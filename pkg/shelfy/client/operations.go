package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shelfy/shelfy/pkg/shelfy/collections"
	"github.com/shelfy/shelfy/pkg/shelfy/localstore"
	"github.com/shelfy/shelfy/pkg/shelfy/models"
	"github.com/shelfy/shelfy/pkg/shelfy/products"
)

// Collections lists all collections, each with its nested products in
// display order. Remote reads within the cache TTL are served from the
// read cache to batch bursts of UI reads.
func (c *Client) Collections(ctx context.Context) ([]models.Collection, error) {
	if c.remoteAvailable(ctx) {
		if cached, ok := c.cachedCollections(); ok {
			return cached, nil
		}
		var list []models.Collection
		err := c.do(ctx, http.MethodGet, "/api/collections", nil, &list)
		if err == nil {
			c.setCachedCollections(list)
			return list, nil
		}
		if !c.shouldFallback(err) {
			return nil, err
		}
		c.fallbackWarn("list collections", err)
	}
	return c.loadCollections()
}

// Products lists the products of one collection in display order.
func (c *Client) Products(ctx context.Context, collectionID string) ([]models.Product, error) {
	if c.remoteAvailable(ctx) {
		var list []models.Product
		path := "/api/products?collectionId=" + url.QueryEscape(collectionID)
		err := c.do(ctx, http.MethodGet, path, nil, &list)
		if err == nil {
			return list, nil
		}
		if !c.shouldFallback(err) {
			return nil, err
		}
		c.fallbackWarn("list products", err)
	}

	list, err := c.loadCollections()
	if err != nil {
		return nil, err
	}
	i := findCollection(list, collectionID)
	if i < 0 {
		return nil, ErrNotFound
	}
	out := list[i].Products
	if out == nil {
		out = []models.Product{}
	}
	return out, nil
}

// Product fetches a single product by id.
func (c *Client) Product(ctx context.Context, id uint) (models.Product, error) {
	if c.remoteAvailable(ctx) {
		var list []models.Product
		err := c.do(ctx, http.MethodGet, "/api/products", nil, &list)
		if err == nil {
			for _, p := range list {
				if p.ID == id {
					return p, nil
				}
			}
			return models.Product{}, ErrNotFound
		}
		if !c.shouldFallback(err) {
			return models.Product{}, err
		}
		c.fallbackWarn("fetch product", err)
	}

	list, err := c.loadCollections()
	if err != nil {
		return models.Product{}, err
	}
	i, j := findProduct(list, id)
	if i < 0 {
		return models.Product{}, ErrNotFound
	}
	return list[i].Products[j], nil
}

// CreateCollection creates a new collection.
func (c *Client) CreateCollection(ctx context.Context, req collections.CreateCollectionRequest) (models.Collection, error) {
	defer c.invalidate()
	if c.remoteAvailable(ctx) {
		var out models.Collection
		err := c.do(ctx, http.MethodPost, "/api/collections", req, &out)
		if err == nil {
			return out, nil
		}
		if !c.shouldFallback(err) {
			return models.Collection{}, err
		}
		c.fallbackWarn("create collection", err)
	}
	return c.localCreateCollection(req)
}

// UpdateCollection updates collection fields by id.
func (c *Client) UpdateCollection(ctx context.Context, req collections.UpdateCollectionRequest) error {
	defer c.invalidate()
	if c.remoteAvailable(ctx) {
		err := c.do(ctx, http.MethodPut, "/api/collections", req, nil)
		if err == nil {
			return nil
		}
		if !c.shouldFallback(err) {
			return err
		}
		c.fallbackWarn("update collection", err)
	}
	return c.localUpdateCollection(req)
}

// DeleteCollection removes a collection and everything referencing it.
// The default collection is rejected with ErrProtected.
func (c *Client) DeleteCollection(ctx context.Context, id string) error {
	defer c.invalidate()
	if c.remoteAvailable(ctx) {
		err := c.do(ctx, http.MethodDelete, "/api/collections", collections.DeleteCollectionRequest{ID: id}, nil)
		if err == nil {
			return nil
		}
		if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == http.StatusForbidden {
			return ErrProtected
		}
		if !c.shouldFallback(err) {
			return err
		}
		c.fallbackWarn("delete collection", err)
	}
	return c.localDeleteCollection(id)
}

// CreateProduct creates a product, assigning the next sequence number in
// its collection.
func (c *Client) CreateProduct(ctx context.Context, req products.CreateProductRequest) (models.Product, error) {
	defer c.invalidate()
	if c.remoteAvailable(ctx) {
		var out models.Product
		err := c.do(ctx, http.MethodPost, "/api/products", req, &out)
		if err == nil {
			return out, nil
		}
		if !c.shouldFallback(err) {
			return models.Product{}, err
		}
		c.fallbackWarn("create product", err)
	}
	return c.localCreateProduct(req)
}

// UpdateProduct updates product fields by id.
func (c *Client) UpdateProduct(ctx context.Context, req products.UpdateProductRequest) error {
	defer c.invalidate()
	if c.remoteAvailable(ctx) {
		err := c.do(ctx, http.MethodPut, "/api/products", req, nil)
		if err == nil {
			return nil
		}
		if !c.shouldFallback(err) {
			return err
		}
		c.fallbackWarn("update product", err)
	}
	return c.localUpdateProduct(req)
}

// DeleteProduct removes a product; its collection is resequenced as part
// of the same logical operation.
func (c *Client) DeleteProduct(ctx context.Context, id uint) error {
	defer c.invalidate()
	if c.remoteAvailable(ctx) {
		err := c.do(ctx, http.MethodDelete, "/api/products", products.DeleteProductRequest{ID: id}, nil)
		if err == nil {
			return nil
		}
		if !c.shouldFallback(err) {
			return err
		}
		c.fallbackWarn("delete product", err)
	}
	return c.localDeleteProduct(id)
}

// RecordClick records a click event and bumps the product's counter.
func (c *Client) RecordClick(ctx context.Context, productID uint) error {
	defer c.invalidate()
	if c.remoteAvailable(ctx) {
		body := map[string]interface{}{"type": "click", "product_id": productID}
		err := c.do(ctx, http.MethodPost, "/api/analytics", body, nil)
		if err == nil {
			return nil
		}
		if !c.shouldFallback(err) {
			return err
		}
		c.fallbackWarn("record click", err)
	}
	return c.localRecordClick(productID)
}

// RecordView records a collection view event.
func (c *Client) RecordView(ctx context.Context, collectionID string) error {
	if c.remoteAvailable(ctx) {
		body := map[string]interface{}{"type": "view", "collection_id": collectionID}
		err := c.do(ctx, http.MethodPost, "/api/analytics", body, nil)
		if err == nil {
			return nil
		}
		if !c.shouldFallback(err) {
			return err
		}
		c.fallbackWarn("record view", err)
	}
	return c.localRecordView(collectionID)
}

// RecordPageView increments the site-wide page view counter.
func (c *Client) RecordPageView(ctx context.Context) error {
	if c.remoteAvailable(ctx) {
		body := map[string]interface{}{"type": "pageview"}
		err := c.do(ctx, http.MethodPost, "/api/analytics", body, nil)
		if err == nil {
			return nil
		}
		if !c.shouldFallback(err) {
			return err
		}
		c.fallbackWarn("record page view", err)
	}
	return c.localRecordPageView()
}

// ClickHistory fetches recent click events, newest first.
func (c *Client) ClickHistory(ctx context.Context) ([]models.ClickEvent, error) {
	if c.remoteAvailable(ctx) {
		var list []models.ClickEvent
		err := c.do(ctx, http.MethodGet, "/api/analytics?type=clicks", nil, &list)
		if err == nil {
			return list, nil
		}
		if !c.shouldFallback(err) {
			return nil, err
		}
		c.fallbackWarn("fetch click history", err)
	}
	var list []models.ClickEvent
	if _, err := c.store.Get(localstore.KeyClickHistory, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CollectionViews fetches recent collection view events, newest first.
func (c *Client) CollectionViews(ctx context.Context) ([]models.CollectionView, error) {
	if c.remoteAvailable(ctx) {
		var list []models.CollectionView
		err := c.do(ctx, http.MethodGet, "/api/analytics?type=views", nil, &list)
		if err == nil {
			return list, nil
		}
		if !c.shouldFallback(err) {
			return nil, err
		}
		c.fallbackWarn("fetch view history", err)
	}
	var list []models.CollectionView
	if _, err := c.store.Get(localstore.KeyViews, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// PageViews fetches the page view count.
func (c *Client) PageViews(ctx context.Context) (uint64, error) {
	if c.remoteAvailable(ctx) {
		var out struct {
			Count uint64 `json:"count"`
		}
		err := c.do(ctx, http.MethodGet, "/api/analytics?type=pageviews", nil, &out)
		if err == nil {
			return out.Count, nil
		}
		if !c.shouldFallback(err) {
			return 0, err
		}
		c.fallbackWarn("fetch page views", err)
	}
	var count uint64
	if _, err := c.store.Get(localstore.KeyPageViews, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// Preference fetches one preference value; the second return is false
// when the key is not set.
func (c *Client) Preference(ctx context.Context, key string) (string, bool, error) {
	if c.remoteAvailable(ctx) {
		var out struct {
			Key   string  `json:"key"`
			Value *string `json:"value"`
		}
		err := c.do(ctx, http.MethodGet, "/api/preferences?key="+url.QueryEscape(key), nil, &out)
		if err == nil {
			if out.Value == nil {
				return "", false, nil
			}
			return *out.Value, true, nil
		}
		if !c.shouldFallback(err) {
			return "", false, err
		}
		c.fallbackWarn("fetch preference", err)
	}
	prefs, err := c.localPreferences()
	if err != nil {
		return "", false, err
	}
	value, ok := prefs[key]
	return value, ok, nil
}

// Preferences fetches all preferences as a key-to-value map.
func (c *Client) Preferences(ctx context.Context) (map[string]string, error) {
	if c.remoteAvailable(ctx) {
		var out map[string]string
		err := c.do(ctx, http.MethodGet, "/api/preferences", nil, &out)
		if err == nil {
			return out, nil
		}
		if !c.shouldFallback(err) {
			return nil, err
		}
		c.fallbackWarn("fetch preferences", err)
	}
	return c.localPreferences()
}

// SetPreference upserts a preference value by key.
func (c *Client) SetPreference(ctx context.Context, key, value string) error {
	if key == "" {
		return &ValidationError{"key is required"}
	}
	if c.remoteAvailable(ctx) {
		body := map[string]string{"key": key, "value": value}
		err := c.do(ctx, http.MethodPost, "/api/preferences", body, nil)
		if err == nil {
			return nil
		}
		if !c.shouldFallback(err) {
			return err
		}
		c.fallbackWarn("set preference", err)
	}
	return c.localSetPreference(key, value)
}

// DeletePreference removes a preference by key.
func (c *Client) DeletePreference(ctx context.Context, key string) error {
	if key == "" {
		return &ValidationError{"key is required"}
	}
	if c.remoteAvailable(ctx) {
		body := map[string]string{"key": key}
		err := c.do(ctx, http.MethodDelete, "/api/preferences", body, nil)
		if err == nil {
			return nil
		}
		if !c.shouldFallback(err) {
			return err
		}
		c.fallbackWarn("delete preference", err)
	}
	return c.localDeletePreference(key)
}
