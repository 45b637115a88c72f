// Package smoketests is a suite of scenario tests run against a users/products/orders service.
// Every test creates its own data through the fixture builder, so the suite can be pointed at a
// shared environment and leave nothing behind.
package smoketests
