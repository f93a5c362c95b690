package demo

// DefaultRenovateJSON is written to repositories that have no
// renovate.json yet.
const DefaultRenovateJSON = `{
  "extends": [
    "config:base"
  ],
  "schedule": [
    "before 5am on Monday"
  ],
  "automerge": false
}
`

// DefaultWorkflowYAML is written to repositories that have no workflow
// under .github/workflows/ yet.
const DefaultWorkflowYAML = `name: Build & Push Docker Image

on:
  push:
    branches: [main]
  workflow_dispatch:

jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - name: Checkout repository
        uses: actions/checkout@v4

      - name: Log in to GitHub Container Registry
        uses: docker/login-action@v3
        with:
          registry: ghcr.io
          username: ${{ env.GHCR_USERNAME }}
          password: ${{ secrets.GHCR_TOKEN }}

      - name: Set up QEMU
        uses: docker/setup-qemu-action@v3

      - name: Set up Docker Buildx
        uses: docker/setup-buildx-action@v3

      - name: Build and push
        uses: docker/build-push-action@v6
        with:
          context: .
          push: true
          platforms: linux/amd64,linux/arm64
          tags: |
            ghcr.io/${{ env.GHCR_USERNAME }}/python-demonstrator:latest
            ghcr.io/${{ env.GHCR_USERNAME }}/python-demonstrator:${{ github.sha }}
`

const renovatePRBody = "A minimal `renovate.json` file was added automatically so that " +
	"the repository can be processed by the demonstrator workflow. " +
	"Feel free to adapt it after the PR is merged.\n\n---\n*Created by demogen*"

const workflowPRBody = "A basic workflow that builds a multi-arch Docker image and pushes it " +
	"to GitHub Container Registry (`ghcr.io`) has been added automatically. " +
	"You may edit or extend it after merging.\n\n---\n*Created by demogen*"
