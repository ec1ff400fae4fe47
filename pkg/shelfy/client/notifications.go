package client

import (
	"fmt"
	"time"

	"github.com/shelfy/shelfy/pkg/shelfy/localstore"
	"github.com/shelfy/shelfy/pkg/shelfy/models"
)

// Notification types.
const (
	NotificationMilestone      = "milestone"
	NotificationLowPerformance = "low-performance"
	NotificationGeneric        = "generic"
)

// maxNotifications caps the stored list; the oldest entry is dropped
// once the cap is reached.
const maxNotifications = 50

// clickMilestones are the click counts that trigger a milestone
// notification when a product reaches them exactly.
var clickMilestones = []uint{10, 50, 100, 500, 1000, 5000, 10000}

// lowPerformanceThreshold is the click count under which an aging product
// counts as low-performing.
const lowPerformanceThreshold = 5

// lowPerformanceAge is how old a product must be before it can be flagged
// as low-performing.
const lowPerformanceAge = 7 * 24 * time.Hour

// Notification is local dashboard state, never sent to the remote store.
type Notification struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifications returns the stored notifications, newest first.
func (c *Client) Notifications() ([]Notification, error) {
	var list []Notification
	if _, err := c.store.Get(localstore.KeyNotifications, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// AddNotification prepends a notification to the capped list.
func (c *Client) AddNotification(typ, title, message string) (Notification, error) {
	list, err := c.Notifications()
	if err != nil {
		return Notification{}, err
	}

	n := Notification{
		ID:        time.Now().UnixNano(),
		Type:      typ,
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
	}
	list = append([]Notification{n}, list...)
	if len(list) > maxNotifications {
		list = list[:maxNotifications]
	}
	return n, c.store.Put(localstore.KeyNotifications, list)
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(id int64) error {
	list, err := c.Notifications()
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID == id {
			list[i].Read = true
			return c.store.Put(localstore.KeyNotifications, list)
		}
	}
	return ErrNotFound
}

// MarkAllNotificationsRead marks every notification as read.
func (c *Client) MarkAllNotificationsRead() error {
	list, err := c.Notifications()
	if err != nil {
		return err
	}
	for i := range list {
		list[i].Read = true
	}
	return c.store.Put(localstore.KeyNotifications, list)
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(id int64) error {
	list, err := c.Notifications()
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, n := range list {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	return c.store.Put(localstore.KeyNotifications, kept)
}

// ClearNotifications removes all notifications.
func (c *Client) ClearNotifications() error {
	return c.store.Delete(localstore.KeyNotifications)
}

// UnreadNotifications returns the number of unread notifications.
func (c *Client) UnreadNotifications() (int, error) {
	list, err := c.Notifications()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, n := range list {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

// CheckMilestones adds a milestone notification when the product's click
// count sits exactly on a milestone, so each threshold fires once per
// crossing.
func (c *Client) CheckMilestones(p models.Product) (bool, error) {
	for _, m := range clickMilestones {
		if p.Clicks == m {
			_, err := c.AddNotification(
				NotificationMilestone,
				"Milestone reached",
				fmt.Sprintf("%q reached %d clicks", p.Name, m),
			)
			return err == nil, err
		}
	}
	return false, nil
}

// CheckLowPerformance flags products older than a week that are still
// under the click threshold. One notification summarizes the whole set.
func (c *Client) CheckLowPerformance(items []models.Product) (int, error) {
	cutoff := time.Now().Add(-lowPerformanceAge)
	flagged := 0
	for _, p := range items {
		if p.Clicks < lowPerformanceThreshold && p.CreatedAt.Before(cutoff) {
			flagged++
		}
	}
	if flagged == 0 {
		return 0, nil
	}
	_, err := c.AddNotification(
		NotificationLowPerformance,
		"Low-performing products",
		fmt.Sprintf("%d products have fewer than %d clicks after a week", flagged, lowPerformanceThreshold),
	)
	return flagged, err
}
