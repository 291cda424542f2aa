// Package quote turns a trade intent into an enriched aggregator quote:
// raw aggregator fields plus platform fee, slippage bounds, price impact and
// route. It never touches a chain and never caches quotes.
package quote
