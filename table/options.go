// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package table

import (
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type SortDirection int

const (
	SortAscending  SortDirection = 1
	SortDescending SortDirection = -1
)

// SortOption orders results on a single field
type SortOption struct {
	Field     string
	Direction SortDirection
}

type findOptions struct {
	sort []SortOption
}

// FindOption tunes FindManyWithOpts
type FindOption func(*findOptions)

// WithSort orders the entries, earlier options take precedence
func WithSort(sorts ...SortOption) FindOption {
	return func(o *findOptions) { o.sort = append(o.sort, sorts...) }
}

func (o *findOptions) lister() options.Lister[options.FindOptions] {
	opts := options.Find()
	if len(o.sort) != 0 {
		sort := bson.D{}
		for _, s := range o.sort {
			sort = append(sort, bson.E{Key: s.Field, Value: int(s.Direction)})
		}
		opts.SetSort(sort)
	}
	return opts
}
