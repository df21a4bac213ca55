package web

// The viewer ships as plain ES2020 in static/app.js. A TypeScript
// source tree under static/src, when present, is bundled over it.

//go:generate sh -c "test -d static/src && $(go env GOPATH)/bin/esbuild static/src/main.ts --bundle --outfile=static/app.js --target=es2020 --sourcemap || echo 'Skipping TypeScript compilation (no static/src directory)'"
