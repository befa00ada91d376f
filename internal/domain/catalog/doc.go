// Package catalog contains the local mirror of remote store catalogs.
//
// A Store is one remote e-commerce endpoint owned by a company. Products and
// their variations are copies of the store's catalog items, refreshed by
// catalog sync jobs and by stock synchronization.
package catalog
