// Package unihub is the client-side data layer for the UniHub community
// backend. It wires the REST transport, the two cache tiers and the
// domain services into one Client.
//
// Components:
//   - transport: bearer-authenticated JSON over HTTP with one token refresh per request.
//   - cache: a memory tier ("communities", "community_{slug}") in front of a
//     persisted tier ("community_{slug}") stored through a provider.Provider
//     with generation fencing so a slow fetch cannot undo an invalidation.
//   - apierr: turns transport failures into one human-readable message.
//   - community: reads, join/leave executors and membership status.
//   - membership: the retrying membership status reconciler.
//   - optimistic: apply/commit/revert local state around a mutation.
//
// Typical use:
//
//	cfg, _ := config.NewLoader(nil).Load()
//	c, err := unihub.New(ctx, unihub.Options{Config: cfg})
//	if err != nil { ... }
//	defer c.Close(ctx)
//
//	list, _ := c.Communities.Communities(ctx, nil)
//	resp, err := c.Communities.Join(ctx, "robotics")
package unihub
