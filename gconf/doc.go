/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Configuration is loaded from the "conf" section of the genesis file, once,
when the database is initialized. Each package owns a single configuration
entry, stored under its name. Later runs of the application load it from the
database, so the market keeps the policy it was created with.
*/
package gconf
