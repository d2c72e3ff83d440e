// Package checkpoint persists the backfill highpoint: the id of the last
// broadcast whose recipients were fully rebuilt. The value lives in a durable
// key/value store outside the job's process (PostgreSQL, Redis or a Badger
// directory) so an interrupted run resumes where it stopped. An absent key
// means no run is in progress.
package checkpoint
