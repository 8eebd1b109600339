/*
 * Mesh
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package graph contains the conflict resolution engine of mesh.

This file contains constants.
*/
package graph

/*
MaxGraphSize is the maximum number of souls the in-memory graph may hold.
Souls whose highest field state is smallest are evicted once the limit is
exceeded. Eviction does not delete data from the storage.
*/
const MaxGraphSize = 10000

/*
DeferWindow is the time window in milliseconds within which a future-dated
write is deferred instead of rejected. Writes dated further into the future
are dropped.
*/
const DeferWindow = 86400000
