//go:generate mockgen -source=../product_gateway.go  -destination=./mock_product_gateway.go  -package=mocks
//go:generate mockgen -source=../product_store.go    -destination=./mock_product_store.go    -package=mocks
//go:generate mockgen -source=../listing_sync.go     -destination=./mock_listing_sync.go     -package=mocks
//go:generate mockgen -source=../reorder.go          -destination=./mock_reorder.go          -package=mocks
//go:generate mockgen -source=../change_events.go   -destination=./mock_change_events.go   -package=mocks
//go:generate mockgen -source=../catalog_service.go  -destination=./mock_catalog_service.go  -package=mocks
//go:generate mockgen -source=../logger.go           -destination=./mock_logger.go           -package=mocks

package mocks
