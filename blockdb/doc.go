// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package blockdb provides a leveldb backed store for the child chain blocks
submitted to the plasma framework.

Each block is stored under a key made of a versioned key set prefix followed
by the big endian block number, so iterating the block key set visits blocks in
block number order.  That allows the framework to resume its block numbering
from the highest stored block after a restart.

Recently accessed blocks are kept in an LRU cache in front of the database.
*/
package blockdb
