// Package models holds the GORM row types backing the catalog tables.
// Domain entities stay free of ORM tags; each row type carries the
// column mappings and a pair of mappers to and from its entity.
//
// catalog.go defines the Seller, CatalogItem and ExchangeRate rows.
package models
