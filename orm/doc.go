/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of model.
* It has a primary key, either provided or taken from the bucket sequence.
* It may possess one or more secondary indexes (1:N).
* Easy queries for one and iteration.

Secondary indexes store one database entry per indexed value and entity.
Updating an index never rewrites data referencing other entities, so two
writers indexing different entities under the same value do not touch the
same key.
*/
package orm
