package browser

// clickScript dispatches a bubbling, cancelable click on the first element
// matching the selector. A missing element is logged in the page and ignored.
const clickScript = `(args) => {
  const [selector] = args;
  const el = document.querySelector(selector);
  if (!el) {
    console.error("miru: no element matches " + selector);
    return false;
  }
  el.dispatchEvent(new MouseEvent("click", { view: window, bubbles: true, cancelable: true }));
  return true;
}`

// typeScript types text into an input or textarea one character at a time,
// firing keydown and keyup around each value change and a single change event
// once the whole string is in. Anything else is a silent no-op.
const typeScript = `(args) => {
  const [selector, text] = args;
  const el = document.querySelector(selector);
  if (!(el instanceof HTMLInputElement) && !(el instanceof HTMLTextAreaElement)) {
    return false;
  }
  el.focus();
  for (const ch of text) {
    el.dispatchEvent(new KeyboardEvent("keydown", { key: ch, bubbles: true }));
    el.value += ch;
    el.dispatchEvent(new KeyboardEvent("keyup", { key: ch, bubbles: true }));
  }
  el.dispatchEvent(new Event("change", { bubbles: true }));
  return true;
}`
