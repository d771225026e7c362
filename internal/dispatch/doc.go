// Package dispatch delivers one action with its parameters to the manager
// application by invoking the platform launcher tools.
//
// Delivery walks up to three tiers, strictly in order, each at most once:
//
//  1. Provider call: "content call" against content://<pkg>.provider with one
//     "--extra" binding per parameter. Runs when the ceiling is ContentProvider.
//  2. Package activity start: "am start -p <pkg>" with intent extras. Runs
//     when the ceiling is PkgActivity or higher.
//  3. Component activity start: "am start -n <pkg>/a.m". Always runs when the
//     earlier tiers did not deliver, and is spawned detached.
//
// Tiers 1 and 2 are synchronous. The child's merged output is scanned line by
// line and a line starting with "Error" fails the tier. A spawn failure or a
// non-zero exit also fails the tier unless exit statuses are ignored. Every
// failure is logged and falls through; nothing is returned to the caller
// except the tier that took the delivery.
//
// Activity starts carry the intent flags 0x18000020
// (NEW_TASK | MULTIPLE_TASK | INCLUDE_STOPPED_PACKAGES) so that a manager the
// OS has force-stopped can still be reached.
//
// There is no timeout: a tier 1 or 2 child that never exits blocks Dispatch.
package dispatch
