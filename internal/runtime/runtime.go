// Package runtime is the fixed prologue/epilogue text injected around
// the per-module function declarations the writer emits. Its contents
// are a collaborator this tool treats as opaque: nothing in the rest of
// the bundler introspects or rewrites this text, it is only ever
// concatenated verbatim into the bundle output.
package runtime

// Head is written once at the very start of every bundle, before any
// per-module declaration. It defines the Shim global that the rest of
// the bundle (and the per-module wrapper functions the writer emits)
// calls into: Shim.ignored (the browser-field "ignore" placeholder) and
// Shim.makeRequire (the require() factory closed over a given module's
// own file object, whose .deps map and .filename the writer fills in per
// module; its .module cache slot is filled by requireModule on first
// require).
const Head = `(function () {
  function Shim() {}
  Shim.files = {};
  Shim.ignored = {};
  Shim.makeRequire = function (file) {
    function require(name) {
      var resolved = file.deps[name];
      if (resolved === Shim.ignored) return {};
      if (!resolved) throw new Error("cannot find module '" + name + "'");
      return requireModule(resolved);
    }
    require._esModule = function (name) {
      var exports = require(name);
      if (exports && exports.__esModule) return exports;
      return { __esModule: true, default: exports };
    };
    return require;
  };
  function requireModule(file) {
    if (file.module) return file.module.exports;
    var module = { exports: {} };
    file.module = module;
    var dirname = file.filename.replace(/\/[^\/]*$/, '') || '/';
    file(module, module.exports, Shim.makeRequire(file), file.filename, dirname, undefined);
    return module.exports;
  }
`

// Tail closes the IIFE Head opens. It is written once, after every
// per-module declaration and the entry-module invocation.
const Tail = `})();
`
