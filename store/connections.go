package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/models"
)

// Connections keeps pairwise connections keyed by (my did, their did)
type Connections struct {
	conns map[string]models.Connection
	*sync.RWMutex
}

func NewConnections() *Connections {
	return &Connections{conns: map[string]models.Connection{}, RWMutex: &sync.RWMutex{}}
}

// StoreConnection records a connection once. A second record for the same
// pair is rejected since connections are only updated through their metadata.
func (c *Connections) StoreConnection(_ context.Context, conn models.Connection) error {
	if conn.MyDID == `` || conn.TheirDID == `` {
		return fmt.Errorf(`connection must contain both dids (%s, %s)`, conn.MyDID, conn.TheirDID)
	}

	c.Lock()
	defer c.Unlock()
	if _, ok := c.conns[conn.Key()]; ok {
		return fmt.Errorf(`connection (%s, %s) already exists`, conn.MyDID, conn.TheirDID)
	}

	c.conns[conn.Key()] = copyConnection(conn)
	return nil
}

func (c *Connections) Connection(_ context.Context, myDid, theirDid string) (models.Connection, error) {
	c.RLock()
	defer c.RUnlock()
	conn, ok := c.conns[models.ConnectionKey(myDid, theirDid)]
	if !ok {
		return models.Connection{}, fmt.Errorf(`%w - connection (%s, %s)`, domain.ErrNotFound, myDid, theirDid)
	}

	return copyConnection(conn), nil
}

// UpdateMetadata merges the given entries into the metadata of the connection
func (c *Connections) UpdateMetadata(_ context.Context, myDid, theirDid string, metadata map[string]string) (models.Connection, error) {
	c.Lock()
	defer c.Unlock()
	key := models.ConnectionKey(myDid, theirDid)
	conn, ok := c.conns[key]
	if !ok {
		return models.Connection{}, fmt.Errorf(`%w - connection (%s, %s)`, domain.ErrNotFound, myDid, theirDid)
	}

	conn = copyConnection(conn)
	if conn.Metadata == nil {
		conn.Metadata = map[string]string{}
	}

	for k, v := range metadata {
		conn.Metadata[k] = v
	}

	c.conns[key] = conn
	return copyConnection(conn), nil
}

// All returns the stored connections in no particular order
func (c *Connections) All() []models.Connection {
	c.RLock()
	defer c.RUnlock()
	var conns []models.Connection
	for _, conn := range c.conns {
		conns = append(conns, copyConnection(conn))
	}
	return conns
}

func copyConnection(conn models.Connection) models.Connection {
	if conn.Metadata == nil {
		return conn
	}

	md := make(map[string]string, len(conn.Metadata))
	for k, v := range conn.Metadata {
		md[k] = v
	}
	conn.Metadata = md
	return conn
}
