// Package model defines the data structures shared by the crawler, the
// exporters, the history database and the HTTP API.
//
//   - PageRecord: one fetched page of a domain crawl
//   - AssetRef, DownloadOutcome, DownloadSummary: persisted assets
//   - CrawlResult and PageResult: the two outcome shapes, wrapped by Outcome
//   - Job: a seed URL travelling through the pipeline
//
// JSON field names are camelCase and form the public wire format.
package model
