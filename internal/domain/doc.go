// Package domain contains the entities of the notes service: users, notes,
// and tasks, plus the validation rules they enforce on themselves.
// Nothing here touches storage or transport.
package domain
