package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aerth/folio/store"
)

func TestAddUser(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "users.db")
	req.NoError(doAddUser(path, "42:Ada Lovelace"))
	req.Error(doAddUser(path, "no-separator"))
	req.Error(doAddUser(path, ":nameless"))

	db, err := store.OpenBolt(path)
	req.NoError(err)
	defer db.Close()
	users, err := db.GetUser(context.Background(), "42")
	req.NoError(err)
	req.Equal([]store.User{{ID: "42", Name: "Ada Lovelace"}}, users)
}
