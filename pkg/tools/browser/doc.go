// Package browser lets the agent read and act on the active browser tab.
//
// # Architecture
//
// The package is built around four pieces:
//
//  1. Tab and TabQuerier: the page-scoped environment. A Tab answers content
//     requests, runs injected scripts and performs searches. A TabQuerier
//     resolves the active tab, or reports that there is none.
//  2. Backends: PlaywrightBrowser launches and owns a Chromium instance;
//     CDPBrowser attaches to a Chrome the user already runs with remote
//     debugging enabled. Both turn page HTML into a PageContent snapshot.
//  3. Gateway: one tab-scripting or messaging call per action. Every action
//     returns an Outcome, which is empty, a snapshot, or a typed ActionError.
//     Gateway methods never return Go errors.
//  4. Tools: read_page, click_element, type_text and search. Each takes a
//     single string and returns the JSON form of the Outcome.
//
// # Outcomes
//
// With no active tab every action yields the empty Outcome, which tools
// serialise as "". Failures are captured as ActionError values with a Kind
// (tab_query, page_content, injection, search, policy, invalid_input) and
// serialised as {"error": {...}} so the model can read and react to them.
package browser
