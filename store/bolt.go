package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
)

const DefaultBoltPath = "Users.db"

var userBucket = []byte("userinfo")

type Bolt struct {
	db *bolt.DB
}

func OpenBolt(filename string) (*Bolt, error) {
	if filename == "" {
		filename = DefaultBoltPath
	}
	if _, err := os.Stat(filename); err != nil {
		if os.IsNotExist(err) {
			log.Println("creating new user database:", filename)
		} else {
			log.Printf("couldn't get fileinfo for user db %q: %v", filename, err)
		}
	}
	db, err := bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db %q: %w", filename, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(userBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

func (b *Bolt) GetUser(_ context.Context, id string) ([]User, error) {
	var raw []byte
	if err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(userBucket).Get([]byte(id)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []User{}, nil
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode stored user %q: %w", id, err)
	}
	return []User{u}, nil
}

// PutUser stores or replaces u.
func (b *Bolt) PutUser(u User) error {
	if u.ID == "" {
		return fmt.Errorf("user needs an id")
	}
	v, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(userBucket).Put([]byte(u.ID), v)
	})
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
