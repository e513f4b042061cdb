// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package debug provides conditional runtime assertions and trace logging for
the codec engine.

# Using Assert

Build with the assert tag to check builder alignment invariants (every child
column reaching the same length as its parent after a push). Without the
tag the checks compile to nothing.

# Using Log

Build with the debug tag to trace schema derivation and plan caching on
stderr. Without the tag the calls compile to nothing.
*/
package debug
