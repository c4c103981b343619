// Package entity provides the generic persistence kernel shared by every
// entity type of the portal.
//
// A Store pairs an Adapter (the backing store: memory, PostgreSQL, bbolt) with
// a Descriptor that names the entity type and exposes its key. All stores
// share one behavior:
//
//   - Save rejects a nil value with an InvalidInput error before the adapter
//     is touched, runs the registered guards, then inserts or upserts.
//   - GetByKey reports an absent key as NotFound ("Course not found with ID: 7").
//   - GetAll reports an empty store as NotFound ("No courses found"); ListAll
//     returns an empty slice instead.
//
// Example:
//
//	courses := entity.NewStore[int64, portal.Course](repo.Courses(), entity.Descriptor[int64, portal.Course]{
//		Name:   "Course",
//		Plural: "courses",
//		Key:    func(c *portal.Course) int64 { return c.ID },
//	})
//	saved, err := courses.Save(ctx, &portal.Course{Title: "Java Programming"})
//	if entity.IsInvalidInput(err) {
//		// reject the request
//	}
//
// Errors returned by a Store are *Error values. Use the Is* helpers or
// errors.Is with the Err* sentinels to branch on their kind.
package entity
