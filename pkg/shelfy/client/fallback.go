package client

import (
	"sort"
	"time"

	"github.com/shelfy/shelfy/pkg/shelfy/collections"
	"github.com/shelfy/shelfy/pkg/shelfy/localstore"
	"github.com/shelfy/shelfy/pkg/shelfy/models"
	"github.com/shelfy/shelfy/pkg/shelfy/products"
)

// defaultCollections seeds the fallback store on first use, matching what
// the server seeds at startup.
func defaultCollections() []models.Collection {
	now := time.Now()
	return []models.Collection{{
		ID:        "home",
		Name:      "Home",
		Slug:      "",
		Theme:     "blue",
		IsDefault: true,
		CreatedAt: now,
		UpdatedAt: now,
		Products:  []models.Product{},
	}}
}

// loadCollections reads the collections blob from the fallback store,
// seeding the default collection when the store is empty.
func (c *Client) loadCollections() ([]models.Collection, error) {
	var list []models.Collection
	ok, err := c.store.Get(localstore.KeyCollections, &list)
	if err != nil {
		return nil, err
	}
	if !ok {
		list = defaultCollections()
		if err := c.store.Put(localstore.KeyCollections, list); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (c *Client) saveCollections(list []models.Collection) error {
	return c.store.Put(localstore.KeyCollections, list)
}

// findCollection locates a collection by id or slug, mirroring how the
// site resolves paths.
func findCollection(list []models.Collection, id string) int {
	for i := range list {
		if list[i].ID == id || (list[i].Slug != "" && list[i].Slug == id) {
			return i
		}
	}
	return -1
}

// findProduct locates a product by id across all collections, returning
// collection and product indexes.
func findProduct(list []models.Collection, id uint) (int, int) {
	for i := range list {
		for j := range list[i].Products {
			if list[i].Products[j].ID == id {
				return i, j
			}
		}
	}
	return -1, -1
}

// nextLocalProductID returns one past the highest product id anywhere in
// the blob, mirroring the remote store's autoincrement.
func nextLocalProductID(list []models.Collection) uint {
	var max uint
	for i := range list {
		for _, p := range list[i].Products {
			if p.ID > max {
				max = p.ID
			}
		}
	}
	return max + 1
}

// resequenceLocal restores dense 1..N sequence numbers within one
// collection of the blob, preserving (sequence_number, id) order. Same
// contract as products.Resequence, applied to the fallback schema.
func resequenceLocal(col *models.Collection) {
	sort.SliceStable(col.Products, func(i, j int) bool {
		a, b := col.Products[i], col.Products[j]
		if a.SequenceNumber != b.SequenceNumber {
			return a.SequenceNumber < b.SequenceNumber
		}
		return a.ID < b.ID
	})
	for i := range col.Products {
		if col.Products[i].SequenceNumber != i+1 {
			col.Products[i].SequenceNumber = i + 1
			col.Products[i].UpdatedAt = time.Now()
		}
	}
}

// nextLocalSequence mirrors products.NextSequence for the blob.
func nextLocalSequence(col *models.Collection) int {
	max := 0
	for _, p := range col.Products {
		if p.SequenceNumber > max {
			max = p.SequenceNumber
		}
	}
	return max + 1
}

// --- local mutations, used when the remote store is unreachable ---

func (c *Client) localCreateCollection(req collections.CreateCollectionRequest) (models.Collection, error) {
	list, err := c.loadCollections()
	if err != nil {
		return models.Collection{}, err
	}

	slug := req.Slug
	if slug == "" {
		slug = collections.Slugify(req.Name)
	}
	if slug == "" {
		return models.Collection{}, &ValidationError{"collection name or slug required"}
	}
	if findCollection(list, slug) >= 0 {
		return models.Collection{}, &ValidationError{"a collection with this slug already exists"}
	}

	theme := req.Theme
	if theme == "" {
		theme = "blue"
	}

	now := time.Now()
	col := models.Collection{
		ID:          slug,
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Theme:       theme,
		CreatedAt:   now,
		UpdatedAt:   now,
		Products:    []models.Product{},
	}
	list = append(list, col)
	return col, c.saveCollections(list)
}

func (c *Client) localUpdateCollection(req collections.UpdateCollectionRequest) error {
	list, err := c.loadCollections()
	if err != nil {
		return err
	}
	i := findCollection(list, req.ID)
	if i < 0 {
		return ErrNotFound
	}

	if req.Name != "" {
		list[i].Name = req.Name
	}
	if req.Slug != nil {
		list[i].Slug = *req.Slug
	}
	if req.Description != nil {
		list[i].Description = *req.Description
	}
	if req.Theme != "" {
		list[i].Theme = req.Theme
	}
	list[i].UpdatedAt = time.Now()
	return c.saveCollections(list)
}

func (c *Client) localDeleteCollection(id string) error {
	list, err := c.loadCollections()
	if err != nil {
		return err
	}
	i := findCollection(list, id)
	if i < 0 {
		return ErrNotFound
	}
	if list[i].IsDefault {
		return ErrProtected
	}

	removed := list[i].ID
	list = append(list[:i], list[i+1:]...)
	if err := c.saveCollections(list); err != nil {
		return err
	}

	// cascade: drop history rows referencing the collection
	var clicks []models.ClickEvent
	if ok, err := c.store.Get(localstore.KeyClickHistory, &clicks); err == nil && ok {
		kept := clicks[:0]
		for _, e := range clicks {
			if e.CollectionID != removed {
				kept = append(kept, e)
			}
		}
		if err := c.store.Put(localstore.KeyClickHistory, kept); err != nil {
			return err
		}
	}
	var views []models.CollectionView
	if ok, err := c.store.Get(localstore.KeyViews, &views); err == nil && ok {
		kept := views[:0]
		for _, v := range views {
			if v.CollectionID != removed {
				kept = append(kept, v)
			}
		}
		if err := c.store.Put(localstore.KeyViews, kept); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) localCreateProduct(req products.CreateProductRequest) (models.Product, error) {
	list, err := c.loadCollections()
	if err != nil {
		return models.Product{}, err
	}
	i := findCollection(list, req.CollectionID)
	if i < 0 {
		return models.Product{}, ErrNotFound
	}

	category := req.Category
	if category == "" {
		category = "Uncategorized"
	}

	now := time.Now()
	product := models.Product{
		ID:             nextLocalProductID(list),
		CollectionID:   list[i].ID,
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		AffiliateLink:  req.AffiliateLink,
		ImageURL:       req.ImageURL,
		Category:       category,
		Badge:          req.Badge,
		Clicks:         req.Clicks,
		SequenceNumber: nextLocalSequence(&list[i]),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	list[i].Products = append(list[i].Products, product)
	return product, c.saveCollections(list)
}

func (c *Client) localUpdateProduct(req products.UpdateProductRequest) error {
	list, err := c.loadCollections()
	if err != nil {
		return err
	}
	i, j := findProduct(list, req.ID)
	if i < 0 {
		return ErrNotFound
	}

	p := &list[i].Products[j]
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.AffiliateLink != "" {
		p.AffiliateLink = req.AffiliateLink
	}
	if req.ImageURL != nil {
		p.ImageURL = *req.ImageURL
	}
	if req.Category != "" {
		p.Category = req.Category
	}
	if req.Badge != nil {
		p.Badge = *req.Badge
	}
	p.UpdatedAt = time.Now()
	return c.saveCollections(list)
}

func (c *Client) localDeleteProduct(id uint) error {
	list, err := c.loadCollections()
	if err != nil {
		return err
	}
	i, j := findProduct(list, id)
	if i < 0 {
		return ErrNotFound
	}

	list[i].Products = append(list[i].Products[:j], list[i].Products[j+1:]...)
	resequenceLocal(&list[i])
	return c.saveCollections(list)
}

func (c *Client) localRecordClick(productID uint) error {
	list, err := c.loadCollections()
	if err != nil {
		return err
	}
	i, j := findProduct(list, productID)
	if i < 0 {
		return ErrNotFound
	}
	list[i].Products[j].Clicks++
	if err := c.saveCollections(list); err != nil {
		return err
	}

	var history []models.ClickEvent
	if _, err := c.store.Get(localstore.KeyClickHistory, &history); err != nil {
		return err
	}
	now := time.Now()
	event := models.ClickEvent{
		ProductID:    productID,
		CollectionID: list[i].ID,
		Date:         now.Format("2006-01-02"),
		Hour:         now.Hour(),
		CreatedAt:    now,
	}
	// newest first, oldest evicted past the retention cap
	history = append([]models.ClickEvent{event}, history...)
	if len(history) > c.cfg.ClickRetention {
		history = history[:c.cfg.ClickRetention]
	}
	return c.store.Put(localstore.KeyClickHistory, history)
}

func (c *Client) localRecordView(collectionID string) error {
	var views []models.CollectionView
	if _, err := c.store.Get(localstore.KeyViews, &views); err != nil {
		return err
	}
	now := time.Now()
	view := models.CollectionView{
		CollectionID: collectionID,
		Date:         now.Format("2006-01-02"),
		Hour:         now.Hour(),
		CreatedAt:    now,
	}
	views = append([]models.CollectionView{view}, views...)
	if len(views) > c.cfg.ViewRetention {
		views = views[:c.cfg.ViewRetention]
	}
	return c.store.Put(localstore.KeyViews, views)
}

func (c *Client) localRecordPageView() error {
	var count uint64
	if _, err := c.store.Get(localstore.KeyPageViews, &count); err != nil {
		return err
	}
	return c.store.Put(localstore.KeyPageViews, count+1)
}

func (c *Client) localPreferences() (map[string]string, error) {
	prefs := make(map[string]string)
	if _, err := c.store.Get(localstore.KeyPreferences, &prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

func (c *Client) localSetPreference(key, value string) error {
	prefs, err := c.localPreferences()
	if err != nil {
		return err
	}
	prefs[key] = value
	return c.store.Put(localstore.KeyPreferences, prefs)
}

func (c *Client) localDeletePreference(key string) error {
	prefs, err := c.localPreferences()
	if err != nil {
		return err
	}
	delete(prefs, key)
	return c.store.Put(localstore.KeyPreferences, prefs)
}
